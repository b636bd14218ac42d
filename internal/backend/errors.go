package backend

import "errors"

// ErrNotFound and related errors describe service failures that map to
// client-visible status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrDefaultCategory = errors.New("default category cannot be deleted")
)
