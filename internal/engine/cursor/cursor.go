package cursor

import (
	"fmt"

	"github.com/smash-editor/smash/internal/engine/rope"
)

// stickyUnset marks a cursor with no remembered vertical column.
const stickyUnset = -1

// Cursor is one insertion point, optionally with a selection. Anchor
// and Head are byte offsets; Anchor == Head means no selection. The
// pair is stored in the user's direction (Head may precede Anchor),
// so extending a backward selection behaves correctly.
type Cursor struct {
	Anchor int
	Head   int
	Sticky int // preferred code-point column for vertical motion
}

// At returns a plain cursor at a byte offset.
func At(off int) Cursor {
	return Cursor{Anchor: off, Head: off, Sticky: stickyUnset}
}

// Selected returns a cursor with an active selection.
func Selected(anchor, head int) Cursor {
	return Cursor{Anchor: anchor, Head: head, Sticky: stickyUnset}
}

// HasSelection reports whether the cursor selects any text.
func (c Cursor) HasSelection() bool { return c.Anchor != c.Head }

// Start returns the lower bound of the selection (or the cursor).
func (c Cursor) Start() int { return min(c.Anchor, c.Head) }

// End returns the upper bound of the selection (or the cursor).
func (c Cursor) End() int { return max(c.Anchor, c.Head) }

// Collapse drops the selection, leaving a cursor at the head.
func (c Cursor) Collapse() Cursor {
	return Cursor{Anchor: c.Head, Head: c.Head, Sticky: c.Sticky}
}

// withHead moves the head, keeping or collapsing the anchor according
// to extend.
func (c Cursor) withHead(head int, extend bool) Cursor {
	if extend {
		return Cursor{Anchor: c.Anchor, Head: head, Sticky: c.Sticky}
	}
	return Cursor{Anchor: head, Head: head, Sticky: c.Sticky}
}

// Position returns the head as a line/column pair.
func (c Cursor) Position(r rope.Rope) rope.Position {
	return r.OffsetToPosition(c.Head)
}

// String formats the cursor for diagnostics.
func (c Cursor) String() string {
	if !c.HasSelection() {
		return fmt.Sprintf("cursor@%d", c.Head)
	}
	return fmt.Sprintf("sel[%d..%d]", c.Anchor, c.Head)
}
