package cursor

import "github.com/smash-editor/smash/internal/engine/rope"

// ColumnSelect replaces the set with one cursor per line of the
// rectangle (topLine..bottomLine, leftCol..rightCol), each selecting
// the intersection of the column band with its line. Lines shorter
// than leftCol contribute a collapsed cursor at their end. Columns
// are code points.
func (s *Set) ColumnSelect(r rope.Rope, topLine, bottomLine, leftCol, rightCol int) {
	if topLine > bottomLine {
		topLine, bottomLine = bottomLine, topLine
	}
	if leftCol > rightCol {
		leftCol, rightCol = rightCol, leftCol
	}
	topLine = max(topLine, 0)
	bottomLine = min(bottomLine, r.LenLines()-1)

	cursors := make([]Cursor, 0, bottomLine-topLine+1)
	for line := topLine; line <= bottomLine; line++ {
		chars := r.LineChars(line)
		lo := min(leftCol, chars)
		hi := min(rightCol, chars)
		start, err := r.PositionToOffset(rope.Position{Line: line, Col: lo})
		if err != nil {
			continue
		}
		end, err := r.PositionToOffset(rope.Position{Line: line, Col: hi})
		if err != nil {
			continue
		}
		if start == end {
			cursors = append(cursors, At(start))
		} else {
			cursors = append(cursors, Selected(start, end))
		}
	}
	if len(cursors) == 0 {
		return
	}
	s.cursors = cursors
	s.primary = 0
	s.normalize()
}
