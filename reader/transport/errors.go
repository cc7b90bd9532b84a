package transport

import "fmt"

// StatusError reports an upstream that answered with a non-200 status, or
// could not be reached at all (StatusCode 0, Err set). Body carries the
// response text for diagnostics.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed while fetching %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("got non-200 response while fetching %s: %s", e.Source, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// ParseError reports a 200 response whose body does not have the expected
// shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
