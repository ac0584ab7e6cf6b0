package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream marks every failed upstream call, including malformed replies.
	ErrUpstream = errors.New("upstream call failed")
	// ErrMalformedResponse marks a successful HTTP exchange whose body was not
	// the expected shape. It wraps ErrUpstream.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrUpstream)
)

// UpstreamError describes a transport failure or an error status.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns both the cause and ErrUpstream so errors.Is matches either.
func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

func malformed(op, detail string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrMalformedResponse, detail)
}
