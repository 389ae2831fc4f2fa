package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrSchema is returned when the schema cannot be created. It is fatal at startup.
	ErrSchema = errors.New("schema initialization failed")
)

// WriteError reports a failed write of a single unit of work (a note row or a
// chunk with its vector). Nothing from the failed unit is committed.
type WriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
