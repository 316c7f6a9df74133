package buffer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/smash-editor/smash/internal/engine/encoding"
	"github.com/smash-editor/smash/internal/engine/rope"
)

// Resolve lowers an EditCommand into the primitive edits that
// implement it, validated against the current content. Resolution is
// pure: the buffer is not modified. For a Batch, each sub-command is
// validated against the content produced by its predecessors, and the
// returned edits are meant to be applied in order.
//
// Any validation failure returns before any state changes, so a
// failed command is never partially visible.
func (b *Buffer) Resolve(cmd EditCommand) ([]Edit, error) {
	return resolve(b.content, cmd)
}

func resolve(r rope.Rope, cmd EditCommand) ([]Edit, error) {
	switch c := cmd.(type) {
	case Insert:
		off, err := resolvePosition(r, c.Pos)
		if err != nil {
			return nil, err
		}
		return []Edit{{Start: off, NewText: encoding.NormalizeToLF(c.Text)}}, nil

	case Delete:
		start, end, err := resolveRange(r, c.Range)
		if err != nil {
			return nil, err
		}
		return []Edit{{Start: start, OldLen: end - start, OldText: r.Slice(start, end)}}, nil

	case Replace:
		start, end, err := resolveRange(r, c.Range)
		if err != nil {
			return nil, err
		}
		return []Edit{{
			Start:   start,
			OldLen:  end - start,
			OldText: r.Slice(start, end),
			NewText: encoding.NormalizeToLF(c.Text),
		}}, nil

	case IndentLines:
		return resolveIndent(r, c)

	case TransformCase:
		return resolveCase(r, c)

	case Batch:
		var all []Edit
		scratch := r
		for i, sub := range c.Commands {
			edits, err := resolve(scratch, sub)
			if err != nil {
				return nil, fmt.Errorf("batch command %d: %w", i, err)
			}
			for _, e := range edits {
				scratch = mustApply(scratch, e)
			}
			all = append(all, edits...)
		}
		return all, nil

	default:
		return nil, fmt.Errorf("%w: unknown command %T", ErrInvalidRange, cmd)
	}
}

// mustApply applies an already-validated edit to a scratch rope.
func mustApply(r rope.Rope, e Edit) rope.Rope {
	if e.OldLen > 0 {
		r, _ = r.Delete(e.Start, e.Start+e.OldLen)
	}
	if len(e.NewText) > 0 {
		r, _ = r.Insert(e.Start, e.NewText)
	}
	return r
}

// resolvePosition validates a position strictly: the line must exist
// and the column must not exceed the line's code-point length.
func resolvePosition(r rope.Rope, pos Position) (int, error) {
	if pos.Line < 0 || pos.Col < 0 || pos.Line >= r.LenLines() {
		return 0, fmt.Errorf("%w: line %d of %d", ErrOutOfBounds, pos.Line, r.LenLines())
	}
	if pos.Col > r.LineChars(pos.Line) {
		return 0, fmt.Errorf("%w: column %d past end of line %d", ErrOutOfBounds, pos.Col, pos.Line)
	}
	return r.PositionToOffset(pos)
}

func resolveRange(r rope.Rope, rng Range) (int, int, error) {
	if rng.Start.Compare(rng.End) > 0 {
		return 0, 0, fmt.Errorf("%w: start after end", ErrInvalidRange)
	}
	start, err := resolvePosition(r, rng.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := resolvePosition(r, rng.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func resolveIndent(r rope.Rope, c IndentLines) ([]Edit, error) {
	width := c.Width
	if width <= 0 {
		width = 4
	}
	unit := "\t"
	if c.UseSpaces {
		unit = strings.Repeat(" ", width)
	}

	lines := append([]int(nil), c.Lines...)
	sort.Ints(lines)
	var edits []Edit
	prev := -1
	for _, line := range lines {
		if line == prev {
			continue
		}
		prev = line
		if line < 0 || line >= r.LenLines() {
			return nil, fmt.Errorf("%w: line %d", ErrOutOfBounds, line)
		}
		start, end := r.LineBounds(line)

		if c.Direction == IndentIn {
			if start == end {
				continue // leave empty lines alone
			}
			edits = append(edits, Edit{Start: start, NewText: unit})
			continue
		}

		// Dedent: strip one tab, or up to width leading spaces.
		text := r.Slice(start, min(start+width, end))
		var strip int
		if len(text) > 0 && text[0] == '\t' {
			strip = 1
		} else {
			for strip < len(text) && text[strip] == ' ' {
				strip++
			}
		}
		if strip == 0 {
			continue
		}
		edits = append(edits, Edit{Start: start, OldLen: strip, OldText: text[:strip]})
	}

	// Later edits must account for earlier ones on the same pass.
	shiftSequential(edits)
	return edits, nil
}

// shiftSequential rebases edits that were computed against one
// content snapshot so they can be applied one after another.
func shiftSequential(edits []Edit) {
	delta := 0
	for i := range edits {
		edits[i].Start += delta
		delta += edits[i].Delta()
	}
}

func resolveCase(r rope.Rope, c TransformCase) ([]Edit, error) {
	start, end, err := resolveRange(r, c.Range)
	if err != nil {
		return nil, err
	}
	old := r.Slice(start, end)
	var replaced string
	switch c.Case {
	case CaseUpper:
		replaced = strings.ToUpper(old)
	case CaseLower:
		replaced = strings.ToLower(old)
	case CaseTitle:
		// cases.Caser carries state; build one per call.
		replaced = cases.Title(language.Und).String(old)
	case CaseToggle:
		replaced = strings.Map(func(ch rune) rune {
			switch {
			case unicode.IsUpper(ch):
				return unicode.ToLower(ch)
			case unicode.IsLower(ch):
				return unicode.ToUpper(ch)
			default:
				return ch
			}
		}, old)
	default:
		return nil, fmt.Errorf("%w: unknown case transform", ErrInvalidRange)
	}
	if replaced == old {
		return nil, nil
	}
	return []Edit{{Start: start, OldLen: len(old), OldText: old, NewText: replaced}}, nil
}

// ClampPosition clamps a position to the nearest valid line and
// column in the buffer.
func (b *Buffer) ClampPosition(pos Position) Position {
	r := b.content
	if pos.Line < 0 {
		return Position{}
	}
	if pos.Line >= r.LenLines() {
		pos.Line = r.LenLines() - 1
	}
	if pos.Col < 0 {
		pos.Col = 0
	}
	if chars := r.LineChars(pos.Line); pos.Col > chars {
		pos.Col = chars
	}
	return pos
}
