package search

import (
	"math/rand"
	"strings"
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

func TestPlainFind(t *testing.T) {
	q := NewPlain("foo", false)
	got := q.Find("foo bar foo baz foo", 0)
	want := []Match{{0, 3}, {8, 11}, {16, 19}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPlainFindNonOverlapping(t *testing.T) {
	q := NewPlain("aa", false)
	got := q.Find("aaaa", 0)
	want := []Match{{0, 2}, {2, 4}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPlainFindCaseInsensitive(t *testing.T) {
	q := NewPlain("FOO", true)
	got := q.Find("foo FOO Foo fOo", 0)
	if len(got) != 4 {
		t.Fatalf("got %d matches, want 4: %v", len(got), got)
	}
	// Multi-byte case pair: é/É.
	q = NewPlain("é", true)
	got = q.Find("aÉb", 0)
	if len(got) != 1 || got[0].Start != 1 || got[0].End != 3 {
		t.Errorf("multibyte fold: %v", got)
	}
}

func TestPlainEmptyNeedle(t *testing.T) {
	if got := NewPlain("", false).Find("abc", 0); got != nil {
		t.Errorf("empty needle matched: %v", got)
	}
}

func TestRegexFind(t *testing.T) {
	q, err := NewRegex(`\bfo+\b`, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := q.Find("fo foo fooo x", 0)
	want := []Match{{0, 2}, {3, 6}, {7, 11}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRegexByteOffsetsWithMultibyte(t *testing.T) {
	q, err := NewRegex(`x+`, 0)
	if err != nil {
		t.Fatal(err)
	}
	// 日 is 3 bytes; regexp2 counts runes, offsets must be bytes.
	got := q.Find("日日xx日x", 0)
	want := []Match{{6, 8}, {11, 12}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRegexLookaround(t *testing.T) {
	// Look-ahead is the reason regexp2 is here at all.
	q, err := NewRegex(`foo(?=bar)`, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := q.Find("foobar foobaz foobar", 0)
	want := []Match{{0, 3}, {14, 17}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRegexInvalidPattern(t *testing.T) {
	if _, err := NewRegex(`(unclosed`, 0); err == nil {
		t.Error("expected a compile error")
	}
}

func TestSetQueryAndNavigation(t *testing.T) {
	r := mustRope(t, "foo bar foo baz foo")
	x := NewIndex()
	x.SetQuery(r, NewPlain("foo", false))

	if x.Count() != 3 {
		t.Fatalf("Count = %d, want 3", x.Count())
	}
	cur, ok := x.Current()
	if !ok || cur.Start != 0 {
		t.Errorf("initial current = %v", cur)
	}

	m, _ := x.Next()
	if m.Start != 8 {
		t.Errorf("Next = %v", m)
	}
	m, _ = x.Next()
	if m.Start != 16 {
		t.Errorf("Next = %v", m)
	}
	m, _ = x.Next()
	if m.Start != 0 {
		t.Errorf("Next should wrap: %v", m)
	}
	m, _ = x.Prev()
	if m.Start != 16 {
		t.Errorf("Prev should wrap: %v", m)
	}
}

func TestClear(t *testing.T) {
	r := mustRope(t, "foo")
	x := NewIndex()
	x.SetQuery(r, NewPlain("foo", false))
	x.Clear()
	if x.Active() || x.Count() != 0 {
		t.Error("Clear should drop everything")
	}
	if _, ok := x.Next(); ok {
		t.Error("Next on cleared index should fail")
	}
}

// applyToRope mirrors the edit the index is told about.
func applyToRope(t *testing.T, r rope.Rope, e buffer.Edit) rope.Rope {
	t.Helper()
	var err error
	if e.OldLen > 0 {
		r, err = r.Delete(e.Start, e.Start+e.OldLen)
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(e.NewText) > 0 {
		r, err = r.Insert(e.Start, e.NewText)
		if err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func TestIncrementalDropAndShift(t *testing.T) {
	r := mustRope(t, "foo xx foo yy foo")
	x := NewIndex()
	x.SetQuery(r, NewPlain("foo", false))

	// Destroy the middle match by replacing its 'o' with '_'.
	e := buffer.Edit{Start: 8, OldLen: 1, OldText: "o", NewText: "_"}
	r = applyToRope(t, r, e)
	x.ApplyEdit(r, e)

	want := []Match{{0, 3}, {14, 17}}
	if x.Count() != 2 {
		t.Fatalf("matches = %v, want %v", x.Matches(), want)
	}
	for i, m := range x.Matches() {
		if m != want[i] {
			t.Errorf("match %d = %v, want %v", i, m, want[i])
		}
	}
}

func TestIncrementalInsertCreatesMatch(t *testing.T) {
	r := mustRope(t, "fo bar")
	x := NewIndex()
	x.SetQuery(r, NewPlain("foo", false))
	if x.Count() != 0 {
		t.Fatal("no match expected initially")
	}

	e := buffer.Edit{Start: 2, NewText: "o"}
	r = applyToRope(t, r, e)
	x.ApplyEdit(r, e)

	if x.Count() != 1 || x.Matches()[0] != (Match{0, 3}) {
		t.Errorf("matches = %v, want [{0 3}]", x.Matches())
	}
}

func TestIncrementalEqualsRescanRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"foo", "ba", "x", " ", "\n", "needle", "ndl"}

	for trial := 0; trial < 25; trial++ {
		var sb strings.Builder
		for i := 0; i < 60; i++ {
			sb.WriteString(words[rng.Intn(len(words))])
		}
		r := mustRope(t, sb.String())

		x := NewIndex()
		x.SetQuery(r, NewPlain("needle", false))

		for step := 0; step < 30; step++ {
			var e buffer.Edit
			if rng.Intn(2) == 0 {
				off := rng.Intn(r.Len() + 1)
				e = buffer.Edit{Start: off, NewText: words[rng.Intn(len(words))]}
			} else if r.Len() > 0 {
				off := rng.Intn(r.Len())
				n := min(rng.Intn(8)+1, r.Len()-off)
				e = buffer.Edit{Start: off, OldLen: n, OldText: r.Slice(off, off+n)}
			} else {
				continue
			}
			r = applyToRope(t, r, e)
			x.ApplyEdit(r, e)

			fresh := NewIndex()
			fresh.SetQuery(r, NewPlain("needle", false))
			if len(fresh.Matches()) != len(x.Matches()) {
				t.Fatalf("trial %d step %d: incremental %v != rescan %v",
					trial, step, x.Matches(), fresh.Matches())
			}
			for i := range fresh.Matches() {
				if fresh.Matches()[i] != x.Matches()[i] {
					t.Fatalf("trial %d step %d: match %d differs: %v vs %v",
						trial, step, i, x.Matches()[i], fresh.Matches()[i])
				}
			}
		}
	}
}

func TestMatchesSortedAndDisjointInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := mustRope(t, strings.Repeat("abcabc", 50))
	x := NewIndex()
	x.SetQuery(r, NewPlain("abca", false))

	for step := 0; step < 50; step++ {
		off := rng.Intn(r.Len() + 1)
		k := rng.Intn(3)
		e := buffer.Edit{Start: off, NewText: "abc"[k : k+1]}
		r = applyToRope(t, r, e)
		x.ApplyEdit(r, e)

		ms := x.Matches()
		for i := 1; i < len(ms); i++ {
			if ms[i-1].Start >= ms[i].Start {
				t.Fatalf("step %d: not sorted: %v", step, ms)
			}
			if ms[i-1].End > ms[i].Start {
				t.Fatalf("step %d: overlapping: %v", step, ms)
			}
		}
	}
}
