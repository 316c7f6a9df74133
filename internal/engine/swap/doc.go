// Package swap implements the crash-recovery journal.
//
// Every committed edit command is appended to a swap file next to
// the document (/dir/name.ext gets /dir/.name.ext.smash-swap). The
// file starts with a header binding it to the content hash of the
// last save; the body is a sequence of length-prefixed, CRC-guarded
// command frames. Replaying the frames over the saved content reverts
// the buffer to its pre-crash state.
//
// Appends run on a background worker behind a bounded queue so the
// edit path never waits on disk, except for brief backpressure when
// the queue is full.
package swap
