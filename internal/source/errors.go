package source

import "fmt"

// StreamError reports that the record source process failed.
// Code is the exit status, or -1 when the process could not be run.
type StreamError struct {
	Code   int
	Output string
	Err    error
}

func (e *StreamError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("record source exited with code %d: %v: %s", e.Code, e.Err, e.Output)
	}
	return fmt.Sprintf("record source exited with code %d: %v", e.Code, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
