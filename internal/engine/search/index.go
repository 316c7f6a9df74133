package search

import (
	"sort"

	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/rope"
)

// Index is the live search state for one buffer. Matches are sorted
// by start offset and non-overlapping; the current pointer wraps on
// navigation.
type Index struct {
	query   Query
	matches []Match
	current int // index into matches, -1 when none selected
}

// NewIndex returns an empty index with no active query.
func NewIndex() *Index {
	return &Index{current: -1}
}

// Active reports whether a query is set.
func (x *Index) Active() bool { return x.query != nil }

// SetQuery installs a query and scans the whole buffer. A nil query
// clears the index.
func (x *Index) SetQuery(r rope.Rope, q Query) {
	if q == nil {
		x.Clear()
		return
	}
	x.query = q
	x.matches = scan(r, q, 0, r.Len())
	x.current = -1
	if len(x.matches) > 0 {
		x.current = 0
	}
}

// Clear drops the query and all matches.
func (x *Index) Clear() {
	x.query = nil
	x.matches = nil
	x.current = -1
}

// Matches returns the live match list. Callers must not modify it.
func (x *Index) Matches() []Match { return x.matches }

// Count returns the number of matches.
func (x *Index) Count() int { return len(x.matches) }

// Current returns the selected match.
func (x *Index) Current() (Match, bool) {
	if x.current < 0 || x.current >= len(x.matches) {
		return Match{}, false
	}
	return x.matches[x.current], true
}

// Next advances the pointer, wrapping at the end.
func (x *Index) Next() (Match, bool) {
	if len(x.matches) == 0 {
		return Match{}, false
	}
	x.current = (x.current + 1) % len(x.matches)
	return x.matches[x.current], true
}

// Prev moves the pointer back, wrapping at the start.
func (x *Index) Prev() (Match, bool) {
	if len(x.matches) == 0 {
		return Match{}, false
	}
	x.current--
	if x.current < 0 {
		x.current = len(x.matches) - 1
	}
	return x.matches[x.current], true
}

// ApplyEdit maintains the match list across one committed edit:
// matches overlapping the replaced range are dropped, later matches
// shift by the length delta, and a window around the change is
// rescanned and merged back in.
func (x *Index) ApplyEdit(r rope.Rope, e buffer.Edit) {
	if x.query == nil {
		return
	}

	oldEnd := e.Start + e.OldLen
	delta := e.Delta()

	kept := x.matches[:0]
	for _, m := range x.matches {
		switch {
		case m.End <= e.Start:
			kept = append(kept, m)
		case m.Start >= oldEnd:
			kept = append(kept, Match{Start: m.Start + delta, End: m.End + delta})
		}
		// Matches overlapping [e.Start, oldEnd) are dropped.
	}
	x.matches = kept

	w := x.query.MaxSpan()
	winStart := max(e.Start-w, 0)
	winEnd := min(e.Start+len(e.NewText)+w, r.Len())

	// Widen the window over any kept match it would bisect, so the
	// rescan owns those ranges outright and cannot produce results
	// overlapping a stale neighbor.
	for _, m := range x.matches {
		if m.Start < winStart && m.End > winStart {
			winStart = m.Start
		}
		if m.Start < winEnd && m.End > winEnd {
			winEnd = m.End
		}
	}

	found := scan(r, x.query, winStart, winEnd)
	x.merge(found, winStart, winEnd)
	x.clampCurrent()
}

// merge replaces the portion of the match list that lies fully inside
// the rescanned window with the fresh results, deduplicating matches
// that straddle the window edges.
func (x *Index) merge(found []Match, winStart, winEnd int) {
	var out []Match
	for _, m := range x.matches {
		if m.Start >= winStart && m.End <= winEnd {
			continue // superseded by the rescan
		}
		out = append(out, m)
	}
	out = append(out, found...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	// Dedupe identical matches; straddling duplicates have identical
	// ranges because the content there did not change.
	dedup := out[:0]
	for _, m := range out {
		if len(dedup) > 0 && dedup[len(dedup)-1] == m {
			continue
		}
		dedup = append(dedup, m)
	}
	x.matches = dedup
}

func (x *Index) clampCurrent() {
	if len(x.matches) == 0 {
		x.current = -1
		return
	}
	if x.current < 0 {
		x.current = 0
	}
	if x.current >= len(x.matches) {
		x.current = len(x.matches) - 1
	}
}

// scan runs the query over [start, end) of the rope. The window is
// materialized once; for the initial full-buffer scan that is one
// pass over the chunks.
func scan(r rope.Rope, q Query, start, end int) []Match {
	if start >= end {
		return nil
	}
	return q.Find(r.Slice(start, end), start)
}
