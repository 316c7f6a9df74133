package cursor

import (
	"sort"
	"strings"

	"github.com/smash-editor/smash/internal/engine/rope"
)

// Set is the ordered multi-cursor collection. Index 0 after
// normalization is the first cursor in document order; the primary
// cursor is tracked separately so adding cursors above it does not
// change which one search and "add next match" operate on.
type Set struct {
	cursors []Cursor
	primary int
}

// NewSet returns a set with a single cursor at the buffer origin.
func NewSet() *Set {
	return &Set{cursors: []Cursor{At(0)}}
}

// NewSetAt returns a set with a single cursor at the given offset.
func NewSetAt(off int) *Set {
	return &Set{cursors: []Cursor{At(off)}}
}

// All returns a copy of the cursors in document order.
func (s *Set) All() []Cursor {
	out := make([]Cursor, len(s.cursors))
	copy(out, s.cursors)
	return out
}

// Count returns the number of cursors.
func (s *Set) Count() int { return len(s.cursors) }

// Primary returns the primary cursor.
func (s *Set) Primary() Cursor { return s.cursors[s.primary] }

// Get returns the cursor at index i in document order.
func (s *Set) Get(i int) Cursor { return s.cursors[i] }

// Restore replaces the whole set (undo restoring a recorded state).
func (s *Set) Restore(cursors []Cursor) {
	if len(cursors) == 0 {
		cursors = []Cursor{At(0)}
	}
	s.cursors = make([]Cursor, len(cursors))
	copy(s.cursors, cursors)
	s.primary = 0
	s.normalize()
}

// Collapse reduces the set to the primary cursor only.
func (s *Set) Collapse() {
	p := s.Primary()
	s.cursors = []Cursor{p}
	s.primary = 0
}

// Add inserts a cursor, merging it with any overlap. Returns false
// when the cursor duplicates an existing one exactly.
func (s *Set) Add(c Cursor) bool {
	for _, existing := range s.cursors {
		if existing.Anchor == c.Anchor && existing.Head == c.Head {
			return false
		}
	}
	s.cursors = append(s.cursors, c)
	s.normalize()
	return true
}

// SetPrimary replaces all cursors with the given one.
func (s *Set) SetPrimary(c Cursor) {
	s.cursors = []Cursor{c}
	s.primary = 0
}

// Map applies fn to every cursor and renormalizes.
func (s *Set) Map(fn func(Cursor) Cursor) {
	for i, c := range s.cursors {
		s.cursors[i] = fn(c)
	}
	s.normalize()
}

// Clamp pulls every cursor back inside [0, maxOff].
func (s *Set) Clamp(maxOff int) {
	s.Map(func(c Cursor) Cursor {
		c.Anchor = min(max(c.Anchor, 0), maxOff)
		c.Head = min(max(c.Head, 0), maxOff)
		return c
	})
}

// normalize sorts by start offset and merges duplicates and
// overlapping selections into their hull. The primary index follows
// the cursor it referred to.
func (s *Set) normalize() {
	if len(s.cursors) == 0 {
		s.cursors = []Cursor{At(0)}
		s.primary = 0
		return
	}
	if s.primary >= len(s.cursors) {
		s.primary = len(s.cursors) - 1
	}
	prim := s.cursors[s.primary]

	sort.SliceStable(s.cursors, func(i, j int) bool {
		if s.cursors[i].Start() != s.cursors[j].Start() {
			return s.cursors[i].Start() < s.cursors[j].Start()
		}
		return s.cursors[i].End() > s.cursors[j].End()
	})

	merged := s.cursors[:1]
	for _, c := range s.cursors[1:] {
		last := &merged[len(merged)-1]
		switch {
		case !c.HasSelection() && !last.HasSelection() && c.Head == last.Head:
			// Identical plain cursors collapse into one.
		case c.HasSelection() || last.HasSelection():
			if c.Start() < last.End() {
				// Overlapping selections merge into the hull,
				// keeping the earlier cursor's direction.
				hullStart := min(last.Start(), c.Start())
				hullEnd := max(last.End(), c.End())
				if last.Head < last.Anchor {
					*last = Cursor{Anchor: hullEnd, Head: hullStart, Sticky: stickyUnset}
				} else {
					*last = Cursor{Anchor: hullStart, Head: hullEnd, Sticky: stickyUnset}
				}
			} else {
				merged = append(merged, c)
			}
		default:
			merged = append(merged, c)
		}
	}
	s.cursors = merged

	s.primary = 0
	for i, c := range s.cursors {
		if c.Start() <= prim.Start() && prim.End() <= c.End() || c == prim {
			s.primary = i
			break
		}
	}
}

// AddNextMatch finds the next occurrence of the primary selection's
// text after the last cursor and adds a cursor selecting it, wrapping
// at the buffer end. Returns false when the primary has no selection,
// no further occurrence exists, or the occurrence is already selected.
func (s *Set) AddNextMatch(r rope.Rope) bool {
	prim := s.Primary()
	if !prim.HasSelection() {
		return false
	}
	needle := r.Slice(prim.Start(), prim.End())
	if needle == "" {
		return false
	}

	last := s.cursors[len(s.cursors)-1]
	from := last.End()

	found := -1
	if idx := indexIn(r, from, r.Len(), needle); idx >= 0 {
		found = idx
	} else if idx := indexIn(r, 0, from, needle); idx >= 0 {
		found = idx
	}
	if found < 0 {
		return false
	}
	return s.Add(Selected(found, found+len(needle)))
}

// indexIn searches [start, end) of the rope for needle, returning an
// absolute byte offset or -1.
func indexIn(r rope.Rope, start, end int, needle string) int {
	if start >= end {
		return -1
	}
	// Window search over chunk boundaries: carry the last
	// len(needle)-1 bytes between windows so straddling matches are
	// found without materializing the range.
	const window = 64 * 1024
	carry := ""
	pos := start
	for pos < end {
		hi := min(pos+window, end)
		text := carry + r.Slice(pos, hi)
		if idx := strings.Index(text, needle); idx >= 0 {
			return pos - len(carry) + idx
		}
		if len(needle) > 1 {
			keep := min(len(needle)-1, len(text))
			carry = text[len(text)-keep:]
		}
		pos = hi
	}
	return -1
}
