package spatial

import "errors"

// --- Error Definitions ---

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("sensor not found")
	ErrResourceExhausted = errors.New("node arena exhausted")
	ErrCorruptTree       = errors.New("r-tree invariant violated")
)
