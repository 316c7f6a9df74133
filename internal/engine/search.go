package engine

import (
	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/search"
)

// SetSearch installs a query (nil clears) and scans the buffer.
func (s *Session) SetSearch(q search.Query) {
	s.index.SetQuery(s.buf.Rope(), q)
}

// NextMatch advances the match pointer, wrapping, and returns it.
func (s *Session) NextMatch() (search.Match, bool) { return s.index.Next() }

// PrevMatch moves the match pointer back, wrapping, and returns it.
func (s *Session) PrevMatch() (search.Match, bool) { return s.index.Prev() }

// CurrentMatch returns the selected match.
func (s *Session) CurrentMatch() (search.Match, bool) { return s.index.Current() }

// ReplaceCurrent substitutes the selected match through the edit
// pipeline, which re-triggers incremental maintenance.
func (s *Session) ReplaceCurrent(text string) (EditOutcome, error) {
	m, ok := s.index.Current()
	if !ok {
		return EditOutcome{Revision: s.buf.Revision()}, nil
	}
	r := s.buf.Rope()
	cmd := buffer.Replace{
		Range: buffer.Range{
			Start: r.OffsetToPosition(m.Start),
			End:   r.OffsetToPosition(m.End),
		},
		Text: text,
	}
	return s.ApplyEdit(cmd, buffer.OriginLocal)
}

// ReplaceAll substitutes every current match as one atomic commit;
// a single undo restores all of them.
func (s *Session) ReplaceAll(text string) (EditOutcome, error) {
	matches := s.index.Matches()
	if len(matches) == 0 {
		return EditOutcome{Revision: s.buf.Revision()}, nil
	}
	r := s.buf.Rope()
	edits := make([]buffer.Edit, 0, len(matches))
	delta := 0
	for _, m := range matches {
		edits = append(edits, buffer.Edit{
			Start:   m.Start + delta,
			OldLen:  m.End - m.Start,
			NewText: text,
		})
		delta += len(text) - (m.End - m.Start)
	}
	return s.ApplyEdit(editsToBatch(r, edits, "replace all"), buffer.OriginLocal)
}
