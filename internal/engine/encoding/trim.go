package encoding

import "github.com/smash-editor/smash/internal/engine/rope"

// TrimRanges returns the byte ranges of trailing spaces and tabs on
// each line of r, in ascending order. The save path turns these into
// a single undoable batch delete before writing.
func TrimRanges(r rope.Rope) [][2]int {
	var ranges [][2]int
	lines := r.LenLines()
	for line := 0; line < lines; line++ {
		start, end := r.LineBounds(line)
		if start >= end {
			continue
		}
		text := r.Slice(start, end)
		trimmed := len(text)
		for trimmed > 0 && (text[trimmed-1] == ' ' || text[trimmed-1] == '\t') {
			trimmed--
		}
		if trimmed < len(text) {
			ranges = append(ranges, [2]int{start + trimmed, end})
		}
	}
	return ranges
}
