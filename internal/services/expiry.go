package services

import (
	"net/url"
	"strconv"
	"time"
)

// URLExpiry reads the unix "expire" query parameter of a signed stream URL.
//
// Returns the zero time when the URL carries none.
func URLExpiry(rawURL string) time.Time {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}
	}
	value := u.Query().Get("expire")
	if value == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
