// Package repositories implements SQLite persistence for refresh history and resolved audio.
//
// Key Implementations:
//   - [RefreshRepository] : one row per pipeline run with status and counters
//   - [AudioCacheRepository] : signed audio URLs keyed by video ID, reused until they expire
//
// Sequence numbers provide stable, human-readable ordering (e.g., refresh #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
