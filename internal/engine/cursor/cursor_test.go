package cursor

import (
	"testing"

	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/rope"
)

func mustRope(t *testing.T, s string) rope.Rope {
	t.Helper()
	r, err := rope.FromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSetStartsAtOrigin(t *testing.T) {
	s := NewSet()
	if s.Count() != 1 || s.Primary().Head != 0 {
		t.Errorf("new set = %v", s.All())
	}
}

func TestAddDeduplicates(t *testing.T) {
	s := NewSetAt(3)
	if s.Add(At(3)) {
		t.Error("adding a duplicate cursor should report false")
	}
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
	if !s.Add(At(7)) {
		t.Error("adding a distinct cursor should report true")
	}
	if s.Count() != 2 {
		t.Errorf("count = %d, want 2", s.Count())
	}
}

func TestAddKeepsSorted(t *testing.T) {
	s := NewSetAt(10)
	s.Add(At(2))
	s.Add(At(6))
	all := s.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Head >= all[i].Head {
			t.Fatalf("set not sorted: %v", all)
		}
	}
}

func TestOverlappingSelectionsMergeToHull(t *testing.T) {
	s := NewSet()
	s.SetPrimary(Selected(2, 8))
	s.Add(Selected(5, 12))
	if s.Count() != 1 {
		t.Fatalf("count = %d, want 1 merged", s.Count())
	}
	got := s.Primary()
	if got.Start() != 2 || got.End() != 12 {
		t.Errorf("hull = [%d..%d], want [2..12]", got.Start(), got.End())
	}
}

func TestBackwardSelectionKeepsDirection(t *testing.T) {
	c := Selected(10, 4)
	if !c.HasSelection() || c.Start() != 4 || c.End() != 10 {
		t.Errorf("bounds wrong: %v", c)
	}
	if c.Head != 4 || c.Anchor != 10 {
		t.Error("direction lost")
	}
}

func TestCharMotion(t *testing.T) {
	r := mustRope(t, "a日b")
	s := NewSetAt(0)

	s.Move(r, MotionCharRight, false, 0)
	if s.Primary().Head != 1 {
		t.Errorf("after right: %d, want 1", s.Primary().Head)
	}
	s.Move(r, MotionCharRight, false, 0)
	if s.Primary().Head != 4 {
		t.Errorf("after right over 日: %d, want 4", s.Primary().Head)
	}
	s.Move(r, MotionCharLeft, false, 0)
	if s.Primary().Head != 1 {
		t.Errorf("after left over 日: %d, want 1", s.Primary().Head)
	}
	s.Move(r, MotionCharLeft, false, 0)
	s.Move(r, MotionCharLeft, false, 0)
	if s.Primary().Head != 0 {
		t.Errorf("left at start should clamp: %d", s.Primary().Head)
	}
}

func TestVerticalMotionStickyColumn(t *testing.T) {
	// The literal clamp scenario: long line, short line, long line.
	r := mustRope(t, "longline\nab\nlongline")
	s := NewSetAt(7) // (0,7)

	s.Move(r, MotionLineDown, false, 0)
	if pos := s.Primary().Position(r); pos != (rope.Position{Line: 1, Col: 2}) {
		t.Fatalf("down: %v, want (1,2)", pos)
	}
	s.Move(r, MotionLineDown, false, 0)
	if pos := s.Primary().Position(r); pos != (rope.Position{Line: 2, Col: 7}) {
		t.Fatalf("down again: %v, want sticky restore (2,7)", pos)
	}
	s.Move(r, MotionLineUp, false, 0)
	if pos := s.Primary().Position(r); pos != (rope.Position{Line: 1, Col: 2}) {
		t.Fatalf("up: %v, want (1,2)", pos)
	}
	s.Move(r, MotionLineUp, false, 0)
	if pos := s.Primary().Position(r); pos != (rope.Position{Line: 0, Col: 7}) {
		t.Fatalf("up again: %v, want (0,7)", pos)
	}
}

func TestHorizontalMotionResetsSticky(t *testing.T) {
	r := mustRope(t, "longline\nab\nlongline")
	s := NewSetAt(7)
	s.Move(r, MotionLineDown, false, 0) // sticky 7, at (1,2)
	s.Move(r, MotionCharLeft, false, 0) // (1,1), sticky forgotten
	s.Move(r, MotionLineDown, false, 0)
	if pos := s.Primary().Position(r); pos != (rope.Position{Line: 2, Col: 1}) {
		t.Errorf("down after horizontal: %v, want (2,1)", pos)
	}
}

func TestLineStartEnd(t *testing.T) {
	r := mustRope(t, "abc\ndefgh")
	s := NewSetAt(6)
	s.Move(r, MotionLineStart, false, 0)
	if s.Primary().Head != 4 {
		t.Errorf("line start: %d, want 4", s.Primary().Head)
	}
	s.Move(r, MotionLineEnd, false, 0)
	if s.Primary().Head != 9 {
		t.Errorf("line end: %d, want 9", s.Primary().Head)
	}
}

func TestBufferStartEnd(t *testing.T) {
	r := mustRope(t, "abc\ndef")
	s := NewSetAt(3)
	s.Move(r, MotionBufferEnd, false, 0)
	if s.Primary().Head != 7 {
		t.Errorf("buffer end: %d", s.Primary().Head)
	}
	s.Move(r, MotionBufferStart, false, 0)
	if s.Primary().Head != 0 {
		t.Errorf("buffer start: %d", s.Primary().Head)
	}
}

func TestWordMotion(t *testing.T) {
	r := mustRope(t, "foo bar_baz  qux")
	s := NewSetAt(0)

	s.Move(r, MotionWordRight, false, 0)
	if s.Primary().Head != 3 {
		t.Errorf("word right: %d, want 3 (end of foo)", s.Primary().Head)
	}
	s.Move(r, MotionWordRight, false, 0)
	// UAX #29 treats bar_baz as a single word.
	if s.Primary().Head != 11 {
		t.Errorf("word right: %d, want 11 (end of bar_baz)", s.Primary().Head)
	}
	s.Move(r, MotionWordRight, false, 0)
	if s.Primary().Head != 16 {
		t.Errorf("word right: %d, want 16 (end of qux)", s.Primary().Head)
	}

	s.Move(r, MotionWordLeft, false, 0)
	if s.Primary().Head != 13 {
		t.Errorf("word left: %d, want 13 (start of qux)", s.Primary().Head)
	}
	s.Move(r, MotionWordLeft, false, 0)
	if s.Primary().Head != 4 {
		t.Errorf("word left: %d, want 4 (start of bar_baz)", s.Primary().Head)
	}
	s.Move(r, MotionWordLeft, false, 0)
	if s.Primary().Head != 0 {
		t.Errorf("word left: %d, want 0", s.Primary().Head)
	}
}

func TestPageMotion(t *testing.T) {
	lines := ""
	for i := 0; i < 50; i++ {
		lines += "line\n"
	}
	r := mustRope(t, lines)
	s := NewSetAt(0)
	s.Move(r, MotionPageDown, false, 10)
	if pos := s.Primary().Position(r); pos.Line != 10 {
		t.Errorf("page down: line %d, want 10", pos.Line)
	}
	s.Move(r, MotionPageUp, false, 10)
	if pos := s.Primary().Position(r); pos.Line != 0 {
		t.Errorf("page up: line %d, want 0", pos.Line)
	}
}

func TestExtendSetsAnchor(t *testing.T) {
	r := mustRope(t, "hello world")
	s := NewSetAt(0)
	s.Move(r, MotionWordRight, true, 0)
	prim := s.Primary()
	if !prim.HasSelection() || prim.Anchor != 0 || prim.Head != 5 {
		t.Errorf("extend selection = %v", prim)
	}
	// Non-extending motion collapses.
	s.Move(r, MotionCharRight, false, 0)
	if s.Primary().HasSelection() {
		t.Error("plain motion should collapse the selection")
	}
}

func TestRemapRule(t *testing.T) {
	// Edit: replace 3 bytes at 5 with 1 byte (delta -2).
	e := buffer.Edit{Start: 5, OldLen: 3, OldText: "abc", NewText: "x"}
	tests := []struct{ in, want int }{
		{0, 0},
		{4, 4},
		{5, 6},  // at edit start: inside [5,8), collapses to the insertion end
		{6, 6},  // inside the removed range: collapses to the insertion end
		{8, 6},  // at removed end: shift by delta
		{20, 18},
	}
	for _, tt := range tests {
		if got := remapOffset(tt.in, e); got != tt.want {
			t.Errorf("remapOffset(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRemapInsertionAdvancesCursor(t *testing.T) {
	s := NewSetAt(4)
	s.Remap(buffer.Edit{Start: 4, NewText: "xy"})
	if s.Primary().Head != 6 {
		t.Errorf("cursor at insertion point should advance: %d, want 6", s.Primary().Head)
	}
}

func TestRemapAllMergesCollapsed(t *testing.T) {
	s := NewSetAt(3)
	s.Add(At(5))
	// Deleting [2,6) collapses both cursors to offset 2.
	s.RemapAll([]buffer.Edit{{Start: 2, OldLen: 4, OldText: "abcd"}})
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1 after merge", s.Count())
	}
	if s.Primary().Head != 2 {
		t.Errorf("head = %d, want 2", s.Primary().Head)
	}
}

func TestAddNextMatch(t *testing.T) {
	r := mustRope(t, "foo bar foo baz foo")
	s := NewSet()
	s.SetPrimary(Selected(0, 3)) // first "foo"

	if !s.AddNextMatch(r) {
		t.Fatal("first AddNextMatch failed")
	}
	if s.Count() != 2 {
		t.Fatalf("count = %d", s.Count())
	}
	if c := s.Get(1); c.Start() != 8 || c.End() != 11 {
		t.Errorf("second match = [%d..%d], want [8..11]", c.Start(), c.End())
	}

	if !s.AddNextMatch(r) {
		t.Fatal("second AddNextMatch failed")
	}
	if c := s.Get(2); c.Start() != 16 || c.End() != 19 {
		t.Errorf("third match = [%d..%d], want [16..19]", c.Start(), c.End())
	}

	// All occurrences selected: wrapping finds only duplicates.
	if s.AddNextMatch(r) {
		t.Error("expected no further matches")
	}
}

func TestAddNextMatchRequiresSelection(t *testing.T) {
	r := mustRope(t, "foo foo")
	s := NewSetAt(0)
	if s.AddNextMatch(r) {
		t.Error("AddNextMatch without a selection should fail")
	}
}

func TestColumnSelect(t *testing.T) {
	r := mustRope(t, "alpha\nbé\ngamma\n")
	s := NewSet()
	s.ColumnSelect(r, 0, 2, 1, 3)

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("count = %d, want 3", len(all))
	}
	// Line 0: cols 1..3 → bytes 1..3.
	if all[0].Start() != 1 || all[0].End() != 3 {
		t.Errorf("line 0 = [%d..%d], want [1..3]", all[0].Start(), all[0].End())
	}
	// Line 1 "bé" has 2 chars; right col clamps to 2 → bytes 7..9.
	if all[1].Start() != 7 || all[1].End() != 9 {
		t.Errorf("line 1 = [%d..%d], want [7..9]", all[1].Start(), all[1].End())
	}
	// Line 2 starts at byte 10: cols 1..3 → bytes 11..13.
	if all[2].Start() != 11 || all[2].End() != 13 {
		t.Errorf("line 2 = [%d..%d], want [11..13]", all[2].Start(), all[2].End())
	}
}

func TestColumnSelectShortLineCollapses(t *testing.T) {
	r := mustRope(t, "abcdef\n\nxyz")
	s := NewSet()
	s.ColumnSelect(r, 0, 2, 2, 4)
	all := s.All()
	if len(all) != 3 {
		t.Fatalf("count = %d, want 3", len(all))
	}
	if all[1].HasSelection() {
		t.Error("empty line should yield a collapsed cursor")
	}
}

func TestClamp(t *testing.T) {
	s := NewSetAt(100)
	s.Clamp(10)
	if s.Primary().Head != 10 {
		t.Errorf("head = %d, want 10", s.Primary().Head)
	}
}
