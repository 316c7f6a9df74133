package engine

import (
	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/cursor"
	"github.com/smash-editor/smash/internal/engine/history"
)

// Undo reverts the current undo node and moves to its parent. The
// cursor state from before the commit is restored exactly. At the
// root nothing changes and the history's ErrAtRoot is returned.
func (s *Session) Undo() (EditOutcome, error) {
	node, err := s.history.Undo()
	if err != nil {
		return EditOutcome{}, err
	}
	return s.applyHistory(node.Inverse(), node.CursorsBefore(), "undo")
}

// Redo replays the last-visited child of the current node.
func (s *Session) Redo() (EditOutcome, error) {
	node, err := s.history.Redo()
	if err != nil {
		return EditOutcome{}, err
	}
	return s.applyHistory(node.Forward(), node.CursorsAfter(), "redo")
}

// Jump walks the tree to an arbitrary node, applying inverses up to
// the common ancestor and forwards down to the target.
func (s *Session) Jump(id history.NodeID) error {
	path, err := s.history.Jump(id)
	if err != nil {
		return err
	}
	for _, n := range path.Up {
		if _, err := s.applyHistory(n.Inverse(), n.CursorsBefore(), "jump"); err != nil {
			return err
		}
	}
	for _, n := range path.Down {
		if _, err := s.applyHistory(n.Forward(), n.CursorsAfter(), "jump"); err != nil {
			return err
		}
	}
	return nil
}

// CanUndo reports whether an undo step exists.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo step exists.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// groupState accumulates the commits made inside Group.
type groupState struct {
	label         string
	edits         []buffer.Edit
	cursorsBefore []cursor.Cursor
}

// Group runs fn and merges every commit it makes into a single undo
// node. Nested calls flatten into the outermost group. The commits
// themselves apply (and publish events) immediately; only history
// recording is deferred.
func (s *Session) Group(label string, fn func() error) error {
	if s.group != nil {
		return fn()
	}
	s.group = &groupState{label: label, cursorsBefore: s.cursors.All()}
	err := fn()
	g := s.group
	s.group = nil

	if len(g.edits) > 0 {
		s.history.Record(history.Commit{
			Forward:       g.edits,
			Inverse:       buffer.InvertEdits(g.edits),
			CursorsBefore: g.cursorsBefore,
			CursorsAfter:  s.cursors.All(),
			Label:         g.label,
			Origin:        buffer.OriginLocal,
		})
	}
	return err
}

// applyHistory pushes recorded edits through the pipeline tail with
// origin Undo: no new history node, but events, journal frames and
// search maintenance all still happen.
func (s *Session) applyHistory(edits []buffer.Edit, restore []cursor.Cursor, label string) (EditOutcome, error) {
	return s.commit(commitArgs{
		edits:   edits,
		origin:  buffer.OriginUndo,
		journal: editsToBatch(s.buf.Rope(), edits, label),
		record:  false,
		restore: restore,
	})
}
