// Package apperr defines sentinel errors shared across layers so transport
// code can map failures to statuses with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
)
