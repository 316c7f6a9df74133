package buffer

import (
	"bytes"
	"fmt"

	"github.com/smash-editor/smash/internal/engine/encoding"
	"github.com/smash-editor/smash/internal/engine/rope"
)

// HashFunc digests rope content. Injected so tests can run hermetic
// and the engine can choose the algorithm (BLAKE3-256 in production).
type HashFunc func(r rope.Rope) []byte

// Buffer is one open document: content plus identity and save state.
// It is owned by a single goroutine; no method is safe for concurrent
// mutation.
type Buffer struct {
	content    rope.Rope
	path       string
	enc        encoding.Encoding
	lineEnding encoding.LineEnding
	revision   uint64

	hash      HashFunc
	savedHash []byte
	savedLen  int
}

// Option configures a Buffer at construction.
type Option func(*Buffer)

// WithPath binds the buffer to a file path.
func WithPath(path string) Option {
	return func(b *Buffer) { b.path = path }
}

// WithEncoding records the detected on-disk encoding.
func WithEncoding(enc encoding.Encoding) Option {
	return func(b *Buffer) { b.enc = enc }
}

// WithLineEnding records the detected line-ending style.
func WithLineEnding(le encoding.LineEnding) Option {
	return func(b *Buffer) { b.lineEnding = le }
}

// WithHashFunc injects the content hash used for the dirty flag.
func WithHashFunc(h HashFunc) Option {
	return func(b *Buffer) { b.hash = h }
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		content:    rope.New(),
		lineEnding: encoding.LF,
		hash:       defaultHash,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.MarkSaved()
	return b
}

// FromText creates a buffer holding text. Line endings are detected
// from the text and then normalized to LF internally.
func FromText(text string, opts ...Option) (*Buffer, error) {
	b := New(opts...)
	b.lineEnding = encoding.DetectLineEnding(text)
	r, err := rope.FromString(encoding.NormalizeToLF(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	b.content = r
	b.MarkSaved()
	return b, nil
}

// FromRope creates a buffer over already-built content, used by the
// memory-mapped load path where the rope exists before the buffer.
// The caller is responsible for having normalized line endings.
func FromRope(r rope.Rope, opts ...Option) *Buffer {
	b := New(opts...)
	b.content = r
	b.MarkSaved()
	return b
}

// defaultHash is an FNV-style fold used when no hash is injected.
// The engine always injects a real content hash; this keeps the zero
// configuration usable in tests.
func defaultHash(r rope.Rope) []byte {
	var h uint64 = 14695981039346656037
	it := r.Chunks(0, r.Len())
	for it.Next() {
		for i := 0; i < len(it.Text()); i++ {
			h ^= uint64(it.Text()[i])
			h *= 1099511628211
		}
	}
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(h >> (8 * i))
	}
	return out
}

// Rope returns the current content. Ropes are immutable values, so
// the result is a stable snapshot.
func (b *Buffer) Rope() rope.Rope { return b.content }

// Path returns the bound file path, or "" for a scratch buffer.
func (b *Buffer) Path() string { return b.path }

// SetPath rebinds the buffer to a new path (save-as).
func (b *Buffer) SetPath(path string) { b.path = path }

// Encoding returns the detected on-disk encoding.
func (b *Buffer) Encoding() encoding.Encoding { return b.enc }

// LineEnding returns the detected line-ending style, which the save
// path re-applies.
func (b *Buffer) LineEnding() encoding.LineEnding { return b.lineEnding }

// Revision returns the monotonically increasing edit counter.
func (b *Buffer) Revision() uint64 { return b.revision }

// Len returns the byte length of the content.
func (b *Buffer) Len() int { return b.content.Len() }

// ContentHash digests the current content with the injected hash.
func (b *Buffer) ContentHash() []byte { return b.hash(b.content) }

// SavedHash returns the hash of the content as of the last save.
func (b *Buffer) SavedHash() []byte { return b.savedHash }

// IsDirty reports whether content differs from the last save. A
// length mismatch short-circuits the hash comparison.
func (b *Buffer) IsDirty() bool {
	if b.content.Len() != b.savedLen {
		return true
	}
	return !bytes.Equal(b.hash(b.content), b.savedHash)
}

// MarkSaved records the current content as the saved state.
func (b *Buffer) MarkSaved() {
	b.savedHash = b.hash(b.content)
	b.savedLen = b.content.Len()
}

// Apply applies resolved edits in order and bumps the revision once.
// The edits must have been produced by Resolve against the current
// content; Apply re-validates against the rope as it goes.
func (b *Buffer) Apply(edits []Edit) error {
	r := b.content
	for _, e := range edits {
		var err error
		if e.OldLen > 0 {
			r, err = r.Delete(e.Start, e.Start+e.OldLen)
			if err != nil {
				return resolveErr(err)
			}
		}
		if len(e.NewText) > 0 {
			r, err = r.Insert(e.Start, e.NewText)
			if err != nil {
				return resolveErr(err)
			}
		}
	}
	b.content = r
	b.revision++
	return nil
}

// resolveErr maps rope errors onto the pipeline's error vocabulary.
func resolveErr(err error) error {
	switch err {
	case rope.ErrOutOfBounds:
		return ErrOutOfBounds
	case rope.ErrNotCharBoundary, rope.ErrInvalidUTF8:
		return ErrInvalidRange
	default:
		return err
	}
}
