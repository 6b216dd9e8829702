package catalog

import (
	"errors"
	"fmt"
)

// FetchError reports a transport failure or a non-success HTTP status
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog fetch failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a body that is not a catalog, including an error envelope
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmpty is the soft failure for an empty or non-array catalog
var ErrEmpty = &EmptyError{}

// EmptyError reports a catalog without orderable items
type EmptyError struct {
	Reason string
}

func (e *EmptyError) Error() string {
	if e.Reason == "" {
		return "catalog is empty"
	}
	return "catalog is empty: " + e.Reason
}

// Is makes every EmptyError match ErrEmpty
func (e *EmptyError) Is(target error) bool {
	_, ok := target.(*EmptyError)
	return ok
}

// IsEmpty reports whether err is a soft empty catalog failure
func IsEmpty(err error) bool {
	return errors.Is(err, ErrEmpty)
}
