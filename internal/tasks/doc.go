// Package tasks runs the refresh pipeline with real-time progress reporting.
//
// # Refresh
//
// [RefreshEngine.Run] turns a list of artists into the links document:
//
//  1. Resolve each artist through the [services.Catalog], in input order
//  2. List the artist's songs, capped at MaxSongsPerArtist
//  3. Extract audio for every song through the [services.Extractor] with
//     bounded fan-out (errgroup, Concurrency workers), keeping catalog order
//  4. Replace the links document with the aggregated tracks
//
// A failing artist or song is logged, counted and skipped. An empty artist
// list is rejected with [shared.ErrEmptyInput] before anything is written.
//
// # Scheduling
//
// [Scheduler] owns a single goroutine that runs on a ticker, once at startup
// when configured, and whenever [Scheduler.Trigger] is called. Only one run is
// active at a time; extra triggers are coalesced and rejected with
// [shared.ErrRefreshInProgress].
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
