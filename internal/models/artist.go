package models

import (
	"net/url"
	"regexp"
	"strings"
)

var channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// ArtistKind classifies how an [Artist] string refers to an artist.
type ArtistKind int

const (
	ArtistName ArtistKind = iota
	ArtistHandle
	ArtistChannel
)

func (k ArtistKind) String() string {
	switch k {
	case ArtistHandle:
		return "handle"
	case ArtistChannel:
		return "channel"
	default:
		return "name"
	}
}

// Artist is a name or platform handle as submitted by a user.
type Artist string

// Kind reports whether the artist is a plain name, an @handle or a channel reference.
func (a Artist) Kind() ArtistKind {
	if _, ok := a.ChannelID(); ok {
		return ArtistChannel
	}
	if strings.HasPrefix(strings.TrimSpace(string(a)), "@") {
		return ArtistHandle
	}
	return ArtistName
}

// ChannelID extracts a channel ID from a bare "UC..." ID or a youtube.com/music.youtube.com channel URL.
func (a Artist) ChannelID() (string, bool) {
	s := strings.TrimSpace(string(a))
	if channelIDPattern.MatchString(s) {
		return s, true
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || !isYouTubeHost(u.Hostname()) {
		return "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "channel" && channelIDPattern.MatchString(parts[1]) {
		return parts[1], true
	}
	return "", false
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// Query returns the text to search a catalog with: handles lose their "@".
func (a Artist) Query() string {
	s := strings.TrimSpace(string(a))
	return strings.TrimPrefix(s, "@")
}

func (a Artist) String() string {
	return strings.TrimSpace(string(a))
}

// ArtistRef is a catalog identifier resolved from an [Artist].
type ArtistRef struct {
	ID      string // Catalog identifier (YouTube Music browseId, Spotify artist ID)
	Name    string // Name as the catalog spells it
	Catalog string // Catalog that issued the ID
	Query   string // Original submitted string
}

// ArtistsFromStrings converts raw strings, dropping blanks.
func ArtistsFromStrings(values []string) []Artist {
	artists := make([]Artist, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		artists = append(artists, Artist(strings.TrimSpace(v)))
	}
	return artists
}
