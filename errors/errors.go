// Package errors defines all exported error sentinels for the tapesort library.
//
// This is the single source of truth for error values. The top-level
// tapesort package, the config package and the CLI all wrap these sentinels,
// so errors.Is checks work across package boundaries.
package errors

import "errors"

// Configuration errors
var (
	ErrConfig       = errors.New("tapesort: invalid configuration")
	ErrInvalidRange = errors.New("tapesort: value range minimum exceeds maximum")
)

// Storage errors
var (
	ErrFormat       = errors.New("tapesort: store length is not a multiple of the cell size")
	ErrIO           = errors.New("tapesort: store I/O failed")
	ErrTapeClosed   = errors.New("tapesort: tape is closed")
	ErrOutOfRange   = errors.New("tapesort: position has no readable cell")
	ErrSizeMismatch = errors.New("tapesort: output tape length differs from input")
)

// Sort errors
var (
	ErrMemoryTooSmall  = errors.New("tapesort: memory limit too small")
	ErrValueOutOfRange = errors.New("tapesort: value outside the declared range")
)

// Verification errors
var (
	ErrNotSorted      = errors.New("tapesort: output is not sorted")
	ErrNotPermutation = errors.New("tapesort: output is not a permutation of the input")
)
