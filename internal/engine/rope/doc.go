// Package rope implements a balanced B+ tree of UTF-8 text chunks.
//
// A Rope is an immutable value: every mutation returns a new Rope that
// shares structure with the original. This makes snapshots free, which
// the undo tree and the event broadcaster rely on.
//
// All offsets are byte offsets into the UTF-8 content. Mutations
// validate that offsets fall on code-point boundaries; the rope never
// contains invalid UTF-8. Index conversions (byte to line, byte to
// code-point column) are O(log n) plus a scan of at most one line.
package rope
