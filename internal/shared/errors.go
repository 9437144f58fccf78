package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrArtistNotFound     = fmt.Errorf("artist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrExtractionFailed   = fmt.Errorf("audio extraction failed")

	// Refresh errors
	ErrRefreshInProgress = fmt.Errorf("refresh already in progress")
	ErrRefreshNotFound   = fmt.Errorf("refresh run not found")
	ErrCacheMiss         = fmt.Errorf("cache miss")

	// Input validation errors
	ErrEmptyInput      = fmt.Errorf("empty input")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
