// Package cursor implements the multi-cursor and selection engine.
//
// A Set is an ordered, non-overlapping collection of cursors. Every
// motion acts on all cursors; after any motion or edit the set is
// re-sorted, deduplicated, and overlapping selections are merged into
// their hull. Vertical motion preserves the intended column across
// shorter lines via a per-cursor sticky column.
package cursor
