package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheMiss is returned when a key is absent or its entry has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrFetchTimeout marks a fetch that ran out of time, as opposed to a
	// network-level failure. Callers use the distinction to decide whether
	// an alternate strategy is worth trying.
	ErrFetchTimeout = errors.New("fetch timed out")

	// ErrInvalidQuery is the only query-level failure: malformed parameters.
	// All upstream unreliability is absorbed inside the pipeline.
	ErrInvalidQuery = errors.New("invalid query parameters")
)

// StatusError is a terminal non-2xx HTTP response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}
