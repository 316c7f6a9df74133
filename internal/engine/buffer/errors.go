package buffer

import "errors"

// Errors surfaced by buffer operations and the edit pipeline.
var (
	// ErrOutOfBounds reports a position or offset past the end of the
	// buffer.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrInvalidRange reports a range with end before start, or an
	// offset that would split a UTF-8 code point.
	ErrInvalidRange = errors.New("invalid range")

	// ErrEncoding reports a load or save that could not be transcoded.
	ErrEncoding = errors.New("encoding error")

	// ErrIO wraps filesystem failures on load and save.
	ErrIO = errors.New("io error")
)
