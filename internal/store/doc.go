// Package store persists the links document and the artist list as plain files.
//
// [LinksFile] holds links.json, the track list served over HTTP. Every write
// replaces the whole document: data goes to a temporary file in the same
// directory which is then renamed over the target, so readers never see a
// partial file.
//
// [ArtistsFile] holds the artist list either as a JSON array (artists.json) or
// as one artist per line (artists.txt, "#" starts a comment). The format follows
// the file extension.
package store
