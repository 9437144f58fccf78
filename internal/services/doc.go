// Package services defines the [Catalog] and [Extractor] interfaces and their implementations.
//
// # Catalogs
//
// [YouTubeService] communicates with the FastAPI proxy server wrapping ytmusicapi.
// The proxy handles YouTube Music authentication; the headers file path is sent
// via the X-Auth-File header on each request.
//
// [SpotifyService] uses the client credentials flow (no user login) to search
// artists and fetch their top tracks, then maps every track to a YouTube video
// through a [TrackSearcher].
//
// Every outbound catalog request waits on a [rate.Limiter] first.
//
// # Artist Matching
//
// Search candidates are ranked with Jaro-Winkler similarity against the
// normalized query. When no candidate reaches the match threshold, the first
// search result wins.
//
// # Extractors
//
// [YTDLPExtractor] shells out to yt-dlp with --dump-json and parses its output.
// [NativeExtractor] uses the pure Go YouTube client. [CachedExtractor] wraps
// either and reuses a signed URL until shortly before it expires.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrArtistNotFound] : search produced no artist
//   - [shared.ErrTrackNotFound] : search produced no song
//   - [shared.ErrExtractionFailed] : no playable audio could be resolved
package services
