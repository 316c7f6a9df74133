package cursor

import "github.com/smash-editor/smash/internal/engine/buffer"

// remapOffset applies the pipeline remap rule to one offset. For an
// edit replacing r bytes at s with i bytes: offsets before s are
// unchanged, offsets inside the removed range collapse into the
// insertion end, and offsets at or past the removed end shift by the
// delta.
func remapOffset(off int, e buffer.Edit) int {
	s := e.Start
	switch {
	case off < s:
		return off
	case off < s+e.OldLen:
		return s + len(e.NewText)
	default:
		return off + e.Delta()
	}
}

// Remap updates every cursor and selection endpoint for one edit.
func (set *Set) Remap(e buffer.Edit) {
	for i := range set.cursors {
		set.cursors[i].Anchor = remapOffset(set.cursors[i].Anchor, e)
		set.cursors[i].Head = remapOffset(set.cursors[i].Head, e)
		set.cursors[i].Sticky = stickyUnset
	}
}

// RemapAll applies a sequence of edits in application order, then
// re-sorts and deduplicates the set once.
func (set *Set) RemapAll(edits []buffer.Edit) {
	for _, e := range edits {
		set.Remap(e)
	}
	set.normalize()
}
