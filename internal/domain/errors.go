package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// MappingError marks a single source row that could not be turned into a
// Restaurant. It fails the record, never the batch; callers skip and count.
type MappingError struct {
	Jurisdiction string
	Field        string // the required field that was absent
	Row          int
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: row %d missing %s", e.Jurisdiction, e.Row, e.Field)
}

// FetchError marks a whole jurisdiction's fetch as failed for this run.
// Recoverable: the jurisdiction is skipped and reported, the run goes on.
type FetchError struct {
	Jurisdiction string
	Err          error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Jurisdiction, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
