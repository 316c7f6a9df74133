package rope

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Rope is an immutable balanced tree of UTF-8 text. The zero value is
// not usable; construct with New, FromString or FromReader.
type Rope struct {
	root *node
}

// New returns an empty rope.
func New() Rope {
	return Rope{root: emptyLeaf()}
}

// FromString builds a rope over s. Returns ErrInvalidUTF8 if s is not
// valid UTF-8.
func FromString(s string) (Rope, error) {
	if !utf8.ValidString(s) {
		return Rope{}, ErrInvalidUTF8
	}
	return fromValidString(s), nil
}

// fromValidString builds a rope over text known to be valid UTF-8.
func fromValidString(s string) Rope {
	if len(s) == 0 {
		return New()
	}
	chunks := chunkify(s)
	leaves := make([]*node, 0, (len(chunks)+maxLeafChunks-1)/maxLeafChunks)
	for i := 0; i < len(chunks); i += maxLeafChunks {
		end := min(i+maxLeafChunks, len(chunks))
		leaves = append(leaves, leafOf(chunks[i:end:end]))
	}
	return Rope{root: buildBalanced(leaves)}
}

// FromReader builds a rope by streaming from r. The content must be
// valid UTF-8; a code point split across read boundaries is handled.
func FromReader(r io.Reader) (Rope, error) {
	var b Builder
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := b.Write(buf[:n]); werr != nil {
				return Rope{}, werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Rope{}, err
		}
	}
	return b.Build()
}

// FromReaderAt builds a rope by streaming size bytes from r in fixed
// blocks. Used for memory-mapped loads: no allocation ever holds the
// whole file.
func FromReaderAt(r io.ReaderAt, size int64) (Rope, error) {
	var b Builder
	buf := make([]byte, 256*1024)
	var off int64
	for off < size {
		n := int64(len(buf))
		if size-off < n {
			n = size - off
		}
		read, err := r.ReadAt(buf[:n], off)
		if read > 0 {
			if werr := b.Write(buf[:read]); werr != nil {
				return Rope{}, werr
			}
		}
		if err != nil && err != io.EOF {
			return Rope{}, err
		}
		if read == 0 {
			break
		}
		off += int64(read)
	}
	return b.Build()
}

// Len returns the byte length. O(1).
func (r Rope) Len() int {
	if r.root == nil {
		return 0
	}
	return r.root.sum.Bytes
}

// LenChars returns the code point count. O(1).
func (r Rope) LenChars() int {
	if r.root == nil {
		return 0
	}
	return r.root.sum.Chars
}

// LenLines returns the number of lines (newline count + 1). O(1).
func (r Rope) LenLines() int {
	if r.root == nil {
		return 1
	}
	return r.root.sum.Newlines + 1
}

// IsEmpty reports whether the rope holds no text.
func (r Rope) IsEmpty() bool { return r.Len() == 0 }

// IsCharBoundary reports whether off is on a code-point boundary.
func (r Rope) IsCharBoundary(off int) bool {
	if off == 0 || off == r.Len() {
		return true
	}
	if off < 0 || off > r.Len() {
		return false
	}
	return r.root.byteAt(off)&0xC0 != 0x80
}

// Insert splices text at the byte offset, returning the new rope.
// The original is unchanged.
func (r Rope) Insert(off int, text string) (Rope, error) {
	if off < 0 || off > r.Len() {
		return Rope{}, ErrOutOfBounds
	}
	if !r.IsCharBoundary(off) {
		return Rope{}, ErrNotCharBoundary
	}
	if !utf8.ValidString(text) {
		return Rope{}, ErrInvalidUTF8
	}
	if len(text) == 0 {
		return r, nil
	}
	mid := fromValidString(text)
	if off == 0 {
		return Rope{root: join(mid.root, r.root)}, nil
	}
	if off == r.Len() {
		return Rope{root: join(r.root, mid.root)}, nil
	}
	left, right := r.root.splitAt(off)
	return Rope{root: join(join(left, mid.root), right)}, nil
}

// Delete removes the byte range [start, end), returning the new rope.
func (r Rope) Delete(start, end int) (Rope, error) {
	if start < 0 || end > r.Len() || start > end {
		return Rope{}, ErrOutOfBounds
	}
	if !r.IsCharBoundary(start) || !r.IsCharBoundary(end) {
		return Rope{}, ErrNotCharBoundary
	}
	if start == end {
		return r, nil
	}
	left, rest := r.root.splitAt(start)
	_, right := rest.splitAt(end - start)
	return Rope{root: join(left, right)}, nil
}

// Slice returns the text of [start, end). Bounds are clamped.
func (r Rope) Slice(start, end int) string {
	if r.root == nil {
		return ""
	}
	start = max(start, 0)
	end = min(end, r.Len())
	if start >= end {
		return ""
	}
	var sb strings.Builder
	sb.Grow(end - start)
	r.root.writeRange(&sb, start, end)
	return sb.String()
}

// String returns the full text. Use sparingly on large ropes.
func (r Rope) String() string {
	return r.Slice(0, r.Len())
}

// CharAt decodes the rune starting at the byte offset. Returns
// utf8.RuneError with size 0 when off is out of bounds or mid-rune.
func (r Rope) CharAt(off int) (rune, int) {
	if off < 0 || off >= r.Len() || !r.IsCharBoundary(off) {
		return utf8.RuneError, 0
	}
	s := r.Slice(off, min(off+utf8.UTFMax, r.Len()))
	return utf8.DecodeRuneInString(s)
}

// LineToByte returns the byte offset where the given line starts.
// Lines past the end saturate to Len. O(log n).
func (r Rope) LineToByte(line int) int {
	if r.root == nil || line <= 0 {
		return 0
	}
	off := r.root.offsetOfNewline(line - 1)
	if off < 0 {
		return r.Len()
	}
	return off
}

// ByteToLine returns the 0-indexed line containing the byte offset.
// Offsets past the end saturate to the last line. O(log n).
func (r Rope) ByteToLine(off int) int {
	if r.root == nil || off <= 0 {
		return 0
	}
	if off > r.Len() {
		off = r.Len()
	}
	return r.root.newlinesBefore(off)
}

// Line returns the text of the given line, without its newline.
func (r Rope) Line(line int) string {
	start, end := r.LineBounds(line)
	return r.Slice(start, end)
}

// LineBounds returns the byte range [start, end) of the given line,
// excluding the trailing newline.
func (r Rope) LineBounds(line int) (int, int) {
	start := r.LineToByte(line)
	if line+1 >= r.LenLines() {
		return start, r.Len()
	}
	return start, r.LineToByte(line+1) - 1
}

// OffsetToPosition converts a byte offset to a Position with a
// code-point column. Offsets are clamped to [0, Len].
func (r Rope) OffsetToPosition(off int) Position {
	if r.root == nil || off <= 0 {
		return Position{}
	}
	if off > r.Len() {
		off = r.Len()
	}
	line := r.ByteToLine(off)
	lineStart := r.LineToByte(line)
	return Position{
		Line: line,
		Col:  r.root.charsBefore(off) - r.root.charsBefore(lineStart),
	}
}

// PositionToOffset converts a Position to a byte offset. The column
// is clamped to the line's code-point length; the line must exist.
func (r Rope) PositionToOffset(pos Position) (int, error) {
	if pos.Line < 0 || pos.Col < 0 {
		return 0, ErrOutOfBounds
	}
	if pos.Line >= r.LenLines() {
		return 0, ErrOutOfBounds
	}
	start, end := r.LineBounds(pos.Line)
	line := r.Slice(start, end)
	off := 0
	for col := 0; col < pos.Col && off < len(line); col++ {
		_, size := utf8.DecodeRuneInString(line[off:])
		off += size
	}
	return start + off, nil
}

// LineChars returns the code-point length of the given line,
// excluding the trailing newline.
func (r Rope) LineChars(line int) int {
	start, end := r.LineBounds(line)
	if start >= end {
		return 0
	}
	return r.root.charsBefore(end) - r.root.charsBefore(start)
}

// Equals compares content (not structure) chunk by chunk.
func (r Rope) Equals(other Rope) bool {
	if r.Len() != other.Len() {
		return false
	}
	a := r.Chunks(0, r.Len())
	b := other.Chunks(0, other.Len())
	var sa, sb string
	for {
		if sa == "" {
			if !a.Next() {
				return sb == "" && !b.Next()
			}
			sa = a.Text()
		}
		if sb == "" {
			if !b.Next() {
				return false
			}
			sb = b.Text()
		}
		n := min(len(sa), len(sb))
		if sa[:n] != sb[:n] {
			return false
		}
		sa, sb = sa[n:], sb[n:]
	}
}
