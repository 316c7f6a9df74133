// Package engine ties the editing core together. A Session owns one
// buffer and its sub-components — cursor set, undo tree, search
// index, swap journal, event broadcaster — and runs every mutation
// through a single synchronous pipeline:
//
//	validate → apply → remap cursors → record history → journal →
//	update dirty/revision → publish event
//
// The pipeline never yields: user input to rope mutation is bounded
// by O(log n + k) for k cursors. The only asynchronous parts are the
// swap-log writer and the event broadcaster, each behind a bounded
// channel and owning no buffer references.
package engine
