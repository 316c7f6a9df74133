package buffer

import "fmt"

// Origin tags the provenance of an edit entering the pipeline.
// Subscribers can filter on it, and the pipeline varies behavior:
// OriginUndo suppresses history recording. Every origin, OriginReplay
// included, is written to the swap journal.
type Origin uint8

const (
	OriginLocal Origin = iota
	OriginRemote
	OriginUndo
	OriginReplay
)

// String returns the origin's wire name.
func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	case OriginUndo:
		return "undo"
	case OriginReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// IndentDirection selects indent or dedent for IndentLines.
type IndentDirection uint8

const (
	IndentIn IndentDirection = iota
	IndentOut
)

// CaseTransform selects the transformation for TransformCase.
type CaseTransform uint8

const (
	CaseUpper CaseTransform = iota
	CaseLower
	CaseTitle
	CaseToggle
)

// EditCommand is one operation submitted to the edit pipeline. The
// concrete types below are the only implementations.
type EditCommand interface {
	isEditCommand()
	fmt.Stringer
}

// Insert splices text at a position.
type Insert struct {
	Pos  Position
	Text string
}

// Delete removes a position range.
type Delete struct {
	Range Range
}

// Replace substitutes a position range with new text.
type Replace struct {
	Range Range
	Text  string
}

// IndentLines shifts a set of lines in or out by one indent unit.
type IndentLines struct {
	Lines     []int
	Direction IndentDirection
	Width     int  // spaces per indent unit
	UseSpaces bool // false inserts a tab instead
}

// TransformCase rewrites the case of the text in a range.
type TransformCase struct {
	Range Range
	Case  CaseTransform
}

// Batch applies sub-commands atomically as one undo entry. Each
// sub-command is validated against the buffer state produced by its
// predecessors.
type Batch struct {
	Commands []EditCommand
	Label    string
}

func (Insert) isEditCommand()        {}
func (Delete) isEditCommand()        {}
func (Replace) isEditCommand()       {}
func (IndentLines) isEditCommand()   {}
func (TransformCase) isEditCommand() {}
func (Batch) isEditCommand()         {}

func (c Insert) String() string {
	return fmt.Sprintf("insert %q at %d:%d", clip(c.Text), c.Pos.Line, c.Pos.Col)
}

func (c Delete) String() string { return "delete " + c.Range.String() }

func (c Replace) String() string {
	return fmt.Sprintf("replace %s with %q", c.Range, clip(c.Text))
}

func (c IndentLines) String() string {
	verb := "indent"
	if c.Direction == IndentOut {
		verb = "dedent"
	}
	return fmt.Sprintf("%s %d lines", verb, len(c.Lines))
}

func (c TransformCase) String() string { return "transform case " + c.Range.String() }

func (c Batch) String() string {
	if c.Label != "" {
		return c.Label
	}
	return fmt.Sprintf("%d edits", len(c.Commands))
}

func clip(s string) string {
	if len(s) > 24 {
		return s[:24] + "…"
	}
	return s
}

// Edit is a resolved primitive change: OldLen bytes at Start replaced
// by NewText. Every EditCommand lowers into a sequence of Edits, and
// cursor remapping, history, search maintenance and events all speak
// this form.
type Edit struct {
	Start   int
	OldLen  int
	OldText string
	NewText string
}

// Delta returns the signed change in buffer length.
func (e Edit) Delta() int { return len(e.NewText) - e.OldLen }

// Invert returns the edit that undoes e, valid against the buffer
// state immediately after e was applied.
func (e Edit) Invert() Edit {
	return Edit{
		Start:   e.Start,
		OldLen:  len(e.NewText),
		OldText: e.NewText,
		NewText: e.OldText,
	}
}

// InvertEdits inverts a sequence of edits that were applied in order,
// returning the inverse sequence in application order.
func InvertEdits(edits []Edit) []Edit {
	out := make([]Edit, len(edits))
	for i, e := range edits {
		out[len(edits)-1-i] = e.Invert()
	}
	return out
}
