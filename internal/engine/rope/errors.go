package rope

import "errors"

// Errors returned by rope mutations.
var (
	// ErrOutOfBounds is returned when an offset lies past the end of
	// the rope or a range extends beyond it.
	ErrOutOfBounds = errors.New("offset out of bounds")

	// ErrNotCharBoundary is returned when an offset would split a
	// UTF-8 code point.
	ErrNotCharBoundary = errors.New("offset not on a code-point boundary")

	// ErrInvalidUTF8 is returned when inserted text is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")
)
