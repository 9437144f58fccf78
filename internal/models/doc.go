// Package models defines the records that flow through the ytlinks refresh pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values: lightweight structs passed between resolvers
//   - [Artist] : a name, handle or channel reference submitted by a user
//   - [ArtistRef] : a resolved catalog identifier for an artist
//   - [SongStub] : a song listed by the catalog, before audio resolution
//   - [AudioInfo] : the extractor's view of a single video
//   - [Track] : the JSON record written to links.json
//
// 2. Persistent entities: database-backed records
//   - [RefreshRun] : one execution of the pipeline, with counters and status
//
// [RefreshRun] implements the [Model] interface providing ID, timestamps and validation.
package models
