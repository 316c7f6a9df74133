package engine

import (
	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/cursor"
	"github.com/smash-editor/smash/internal/engine/history"
	"github.com/smash-editor/smash/internal/engine/rope"
	"github.com/smash-editor/smash/internal/engine/swap"
	"github.com/smash-editor/smash/internal/event"
)

// EditOutcome reports what a committed command did.
type EditOutcome struct {
	Revision uint64
	Edits    []buffer.Edit
}

// ApplyEdit is the single mutation entry point. Every edit — local
// keystroke, remote operation, recovery replay — passes through here.
// Validation failures leave the session exactly as it was.
func (s *Session) ApplyEdit(cmd buffer.EditCommand, origin buffer.Origin) (EditOutcome, error) {
	edits, err := s.buf.Resolve(cmd)
	if err != nil {
		return EditOutcome{}, err
	}
	label := ""
	if b, ok := cmd.(buffer.Batch); ok {
		label = b.Label
	}
	return s.commit(commitArgs{
		edits:   edits,
		origin:  origin,
		journal: cmd,
		record:  origin != buffer.OriginUndo,
		label:   label,
	})
}

// commitArgs carries one change through the pipeline tail.
type commitArgs struct {
	edits   []buffer.Edit
	origin  buffer.Origin
	journal buffer.EditCommand // appended to the swap log when non-nil
	record  bool
	label   string
	restore []cursor.Cursor // exact cursor state to restore (undo/redo)
}

// commit runs pipeline stages 3..8: apply, remap, record, journal,
// revision, event. Stages 1..2 (validate, plan inverse) happened in
// Resolve; the resolved edits carry their own inverses.
func (s *Session) commit(a commitArgs) (EditOutcome, error) {
	if len(a.edits) == 0 {
		return EditOutcome{Revision: s.buf.Revision()}, nil
	}

	ropeBefore := s.buf.Rope()
	cursorsBefore := s.cursors.All()

	if err := s.buf.Apply(a.edits); err != nil {
		return EditOutcome{}, err
	}

	if a.restore != nil {
		s.cursors.Restore(a.restore)
	} else {
		s.cursors.RemapAll(a.edits)
	}
	s.cursors.Clamp(s.buf.Len())

	if a.record {
		if s.group != nil {
			// Inside Group: accumulate; one node is recorded when
			// the closure finishes.
			s.group.edits = append(s.group.edits, a.edits...)
		} else {
			s.history.Record(history.Commit{
				Forward:       a.edits,
				Inverse:       buffer.InvertEdits(a.edits),
				CursorsBefore: cursorsBefore,
				CursorsAfter:  s.cursors.All(),
				Label:         a.label,
				Origin:        a.origin,
			})
		}
	}

	// Every origin journals — including Replay (ReplaySwap reads the
	// old journal fully before the first apply recreates it) and
	// Undo (the journal must track content, invariant 8).
	if a.journal != nil {
		s.appendJournal(a.journal)
	}

	// Incremental search maintenance walks the same intermediate
	// states the edits were resolved against.
	if s.index.Active() {
		scratch := ropeBefore
		for _, e := range a.edits {
			scratch = applyToRope(scratch, e)
			s.index.ApplyEdit(scratch, e)
		}
	}

	changes := make([]event.Change, len(a.edits))
	for i, e := range a.edits {
		changes[i] = event.Change{StartByte: e.Start, OldLen: e.OldLen, NewText: e.NewText}
	}
	s.events.Publish(event.Edit{
		Revision: s.buf.Revision(),
		Origin:   a.origin,
		Changes:  changes,
	})

	return EditOutcome{Revision: s.buf.Revision(), Edits: a.edits}, nil
}

// appendJournal lazily creates the swap writer on the first journaled
// commit of a file-backed buffer, then appends. Journal failures are
// logged, never fatal: losing crash recovery must not block editing.
func (s *Session) appendJournal(cmd buffer.EditCommand) {
	if s.buf.Path() == "" {
		return
	}
	if s.journal == nil {
		w, err := swap.NewWriter(s.buf.Path(), swap.Header{
			Hash:      s.diskHash,
			Path:      s.buf.Path(),
			CreatedAt: s.clock().Unix(),
		}, swap.WriterConfig{
			QueueDepth:    s.cfg.SwapQueueDepth,
			FsyncInterval: s.cfg.SwapFsyncInterval.Std(),
			IdleFlush:     s.cfg.SwapIdleFlush.Std(),
			FsyncTimeout:  s.cfg.SwapFsyncTimeout.Std(),
		}, s.log)
		if err != nil {
			s.log.Errorf("swap journal unavailable: %v", err)
			return
		}
		s.journal = w
	}
	if err := s.journal.Append(cmd); err != nil {
		s.log.Errorf("swap append failed: %v", err)
	}
}

// applyToRope replays one already-validated edit on a rope snapshot.
func applyToRope(r rope.Rope, e buffer.Edit) rope.Rope {
	if e.OldLen > 0 {
		r, _ = r.Delete(e.Start, e.Start+e.OldLen)
	}
	if len(e.NewText) > 0 {
		r, _ = r.Insert(e.Start, e.NewText)
	}
	return r
}

// editsToBatch converts resolved sequential edits into a Batch of
// position-addressed Replace commands valid against r. Used to
// journal undo/redo traffic in the same vocabulary as everything
// else in the swap file.
func editsToBatch(r rope.Rope, edits []buffer.Edit, label string) buffer.Batch {
	b := buffer.Batch{Label: label}
	scratch := r
	for _, e := range edits {
		start := scratch.OffsetToPosition(e.Start)
		end := scratch.OffsetToPosition(e.Start + e.OldLen)
		b.Commands = append(b.Commands, buffer.Replace{
			Range: buffer.Range{Start: start, End: end},
			Text:  e.NewText,
		})
		scratch = applyToRope(scratch, e)
	}
	return b
}

// InsertAtCursors inserts text at every cursor, replacing active
// selections, as one atomic commit.
func (s *Session) InsertAtCursors(text string) (EditOutcome, error) {
	r := s.buf.Rope()
	var edits []buffer.Edit
	delta := 0
	for _, c := range s.cursors.All() {
		start, end := c.Start()+delta, c.End()+delta
		edits = append(edits, buffer.Edit{
			Start:   start,
			OldLen:  end - start,
			NewText: text,
		})
		delta += len(text) - (end - start)
	}
	return s.ApplyEdit(editsToBatch(r, edits, ""), buffer.OriginLocal)
}
