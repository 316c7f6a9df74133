package swap

import "errors"

var (
	// ErrCorrupted reports an unreadable header, unknown magic, or a
	// frame whose CRC does not match. Opening proceeds without
	// replay; partial replay state is still offered to the caller.
	ErrCorrupted = errors.New("swap file corrupted")

	// ErrStalled reports an fsync exceeding its timeout. Data is
	// written, just not yet durable; the writer retries on the next
	// flush.
	ErrStalled = errors.New("swap fsync stalled")

	// ErrClosed reports an append to a writer that has shut down.
	ErrClosed = errors.New("swap writer closed")
)
