package cursor

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/smash-editor/smash/internal/engine/rope"
)

// Motion names a cursor movement primitive.
type Motion uint8

const (
	MotionCharLeft Motion = iota
	MotionCharRight
	MotionWordLeft
	MotionWordRight
	MotionLineUp
	MotionLineDown
	MotionLineStart
	MotionLineEnd
	MotionBufferStart
	MotionBufferEnd
	MotionPageUp
	MotionPageDown
)

// wordWindow bounds how far word motion scans for a boundary.
const wordWindow = 4096

// Move applies a motion to every cursor in the set. When extend is
// true the anchors stay put (setting one at the pre-motion position
// for cursors that had none); otherwise selections collapse. viewport
// is the page height hint for page motions.
func (s *Set) Move(r rope.Rope, m Motion, extend bool, viewport int) {
	s.Map(func(c Cursor) Cursor {
		return moveCursor(r, c, m, extend, viewport)
	})
}

func moveCursor(r rope.Rope, c Cursor, m Motion, extend bool, viewport int) Cursor {
	// A non-extending motion on a selection first collapses to the
	// head, then moves.
	if c.HasSelection() && !extend {
		c = c.Collapse()
	}

	switch m {
	case MotionCharLeft:
		return horizontal(r, c, prevCharStart(r, c.Head), extend)
	case MotionCharRight:
		return horizontal(r, c, nextCharStart(r, c.Head), extend)
	case MotionWordLeft:
		return horizontal(r, c, prevWordStart(r, c.Head), extend)
	case MotionWordRight:
		return horizontal(r, c, nextWordEnd(r, c.Head), extend)
	case MotionLineStart:
		line := r.ByteToLine(c.Head)
		return horizontal(r, c, r.LineToByte(line), extend)
	case MotionLineEnd:
		line := r.ByteToLine(c.Head)
		_, end := r.LineBounds(line)
		return horizontal(r, c, end, extend)
	case MotionBufferStart:
		return horizontal(r, c, 0, extend)
	case MotionBufferEnd:
		return horizontal(r, c, r.Len(), extend)
	case MotionLineUp:
		return vertical(r, c, -1, extend)
	case MotionLineDown:
		return vertical(r, c, 1, extend)
	case MotionPageUp:
		return vertical(r, c, -max(viewport, 1), extend)
	case MotionPageDown:
		return vertical(r, c, max(viewport, 1), extend)
	default:
		return c
	}
}

// horizontal moves the head to an absolute offset and forgets the
// sticky column.
func horizontal(r rope.Rope, c Cursor, off int, extend bool) Cursor {
	off = min(max(off, 0), r.Len())
	out := c.withHead(off, extend)
	out.Sticky = stickyUnset
	return out
}

// vertical moves the head by delta lines, clamping the column to the
// target line's code-point length and remembering the intended
// column so a later vertical motion can restore it.
func vertical(r rope.Rope, c Cursor, delta int, extend bool) Cursor {
	pos := r.OffsetToPosition(c.Head)
	sticky := c.Sticky
	if sticky == stickyUnset {
		sticky = pos.Col
	}

	line := min(max(pos.Line+delta, 0), r.LenLines()-1)
	col := min(sticky, r.LineChars(line))
	off, err := r.PositionToOffset(rope.Position{Line: line, Col: col})
	if err != nil {
		return c
	}
	out := c.withHead(off, extend)
	out.Sticky = sticky
	return out
}

// prevCharStart returns the offset of the code point before off.
func prevCharStart(r rope.Rope, off int) int {
	if off <= 0 {
		return 0
	}
	off--
	for off > 0 && !r.IsCharBoundary(off) {
		off--
	}
	return off
}

// nextCharStart returns the offset just past the code point at off.
func nextCharStart(r rope.Rope, off int) int {
	if off >= r.Len() {
		return r.Len()
	}
	_, size := r.CharAt(off)
	if size == 0 {
		return off + 1
	}
	return off + size
}

// nextWordEnd returns the offset of the end of the next word segment
// at or after off, per Unicode default word boundaries. Runs of
// whitespace are skipped.
func nextWordEnd(r rope.Rope, off int) int {
	end := min(off+wordWindow, r.Len())
	text := r.Slice(off, end)
	pos := 0
	state := -1
	for len(text) > 0 {
		var word string
		word, text, state = uniseg.FirstWordInString(text, state)
		pos += len(word)
		if !isWhitespace(word) && pos > 0 {
			return off + pos
		}
	}
	return end
}

// prevWordStart returns the offset of the start of the previous word
// segment strictly before off.
func prevWordStart(r rope.Rope, off int) int {
	start := max(off-wordWindow, 0)
	text := r.Slice(start, off)
	pos := 0
	state := -1
	last := -1
	for len(text) > 0 {
		var word string
		word, text, state = uniseg.FirstWordInString(text, state)
		if !isWhitespace(word) && pos < off-start {
			last = pos
		}
		pos += len(word)
	}
	if last < 0 {
		return start
	}
	return start + last
}

func isWhitespace(s string) bool {
	for len(s) > 0 {
		ch, size := utf8.DecodeRuneInString(s)
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			return false
		}
		s = s[size:]
	}
	return len(s) == 0
}
