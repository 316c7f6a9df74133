// Package buffer owns the text content and identity of one open
// document: the rope, its file path, encoding, line-ending style,
// revision counter and saved-content hash.
//
// The buffer exposes primitive, validated byte-level mutations and
// the EditCommand vocabulary. The full edit pipeline (cursor
// remapping, history recording, swap logging, event publishing) is
// driven by the engine package, which is the only caller of the
// mutation methods here.
package buffer
