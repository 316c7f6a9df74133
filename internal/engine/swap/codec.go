package swap

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/smash-editor/smash/internal/engine/buffer"
)

// Frame payloads are JSON documents tagged by "op". The binary
// framing around them (length prefix + CRC) lives in format.go.

// EncodeCommand serializes an EditCommand to a frame payload.
func EncodeCommand(cmd buffer.EditCommand) ([]byte, error) {
	s, err := encodeJSON(cmd)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func encodeJSON(cmd buffer.EditCommand) (string, error) {
	switch c := cmd.(type) {
	case buffer.Insert:
		out, _ := sjson.Set("", "op", "insert")
		out, _ = sjson.Set(out, "line", c.Pos.Line)
		out, _ = sjson.Set(out, "col", c.Pos.Col)
		out, _ = sjson.Set(out, "text", c.Text)
		return out, nil

	case buffer.Delete:
		out, _ := sjson.Set("", "op", "delete")
		return setRange(out, c.Range), nil

	case buffer.Replace:
		out, _ := sjson.Set("", "op", "replace")
		out = setRange(out, c.Range)
		out, _ = sjson.Set(out, "text", c.Text)
		return out, nil

	case buffer.IndentLines:
		out, _ := sjson.Set("", "op", "indent")
		out, _ = sjson.Set(out, "lines", c.Lines)
		dir := "in"
		if c.Direction == buffer.IndentOut {
			dir = "out"
		}
		out, _ = sjson.Set(out, "dir", dir)
		out, _ = sjson.Set(out, "width", c.Width)
		out, _ = sjson.Set(out, "spaces", c.UseSpaces)
		return out, nil

	case buffer.TransformCase:
		out, _ := sjson.Set("", "op", "case")
		out = setRange(out, c.Range)
		out, _ = sjson.Set(out, "case", caseName(c.Case))
		return out, nil

	case buffer.Batch:
		out, _ := sjson.Set("", "op", "batch")
		if c.Label != "" {
			out, _ = sjson.Set(out, "label", c.Label)
		}
		out, _ = sjson.SetRaw(out, "commands", "[]")
		for _, sub := range c.Commands {
			subJSON, err := encodeJSON(sub)
			if err != nil {
				return "", err
			}
			out, _ = sjson.SetRaw(out, "commands.-1", subJSON)
		}
		return out, nil

	default:
		return "", fmt.Errorf("%w: unencodable command %T", ErrCorrupted, cmd)
	}
}

func setRange(doc string, r buffer.Range) string {
	doc, _ = sjson.Set(doc, "start_line", r.Start.Line)
	doc, _ = sjson.Set(doc, "start_col", r.Start.Col)
	doc, _ = sjson.Set(doc, "end_line", r.End.Line)
	doc, _ = sjson.Set(doc, "end_col", r.End.Col)
	return doc
}

func caseName(c buffer.CaseTransform) string {
	switch c {
	case buffer.CaseUpper:
		return "upper"
	case buffer.CaseLower:
		return "lower"
	case buffer.CaseTitle:
		return "title"
	default:
		return "toggle"
	}
}

// DecodeCommand parses a frame payload back into an EditCommand.
func DecodeCommand(payload []byte) (buffer.EditCommand, error) {
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: frame payload is not an object", ErrCorrupted)
	}
	return decodeJSON(doc)
}

func decodeJSON(doc gjson.Result) (buffer.EditCommand, error) {
	switch op := doc.Get("op").String(); op {
	case "insert":
		return buffer.Insert{
			Pos: buffer.Position{
				Line: int(doc.Get("line").Int()),
				Col:  int(doc.Get("col").Int()),
			},
			Text: doc.Get("text").String(),
		}, nil

	case "delete":
		return buffer.Delete{Range: getRange(doc)}, nil

	case "replace":
		return buffer.Replace{Range: getRange(doc), Text: doc.Get("text").String()}, nil

	case "indent":
		var lines []int
		for _, v := range doc.Get("lines").Array() {
			lines = append(lines, int(v.Int()))
		}
		dir := buffer.IndentIn
		if doc.Get("dir").String() == "out" {
			dir = buffer.IndentOut
		}
		return buffer.IndentLines{
			Lines:     lines,
			Direction: dir,
			Width:     int(doc.Get("width").Int()),
			UseSpaces: doc.Get("spaces").Bool(),
		}, nil

	case "case":
		tr, err := caseFromName(doc.Get("case").String())
		if err != nil {
			return nil, err
		}
		return buffer.TransformCase{Range: getRange(doc), Case: tr}, nil

	case "batch":
		b := buffer.Batch{Label: doc.Get("label").String()}
		for _, sub := range doc.Get("commands").Array() {
			cmd, err := decodeJSON(sub)
			if err != nil {
				return nil, err
			}
			b.Commands = append(b.Commands, cmd)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrCorrupted, op)
	}
}

func getRange(doc gjson.Result) buffer.Range {
	return buffer.Range{
		Start: buffer.Position{
			Line: int(doc.Get("start_line").Int()),
			Col:  int(doc.Get("start_col").Int()),
		},
		End: buffer.Position{
			Line: int(doc.Get("end_line").Int()),
			Col:  int(doc.Get("end_col").Int()),
		},
	}
}

func caseFromName(name string) (buffer.CaseTransform, error) {
	switch name {
	case "upper":
		return buffer.CaseUpper, nil
	case "lower":
		return buffer.CaseLower, nil
	case "title":
		return buffer.CaseTitle, nil
	case "toggle":
		return buffer.CaseToggle, nil
	default:
		return 0, fmt.Errorf("%w: unknown case transform %q", ErrCorrupted, name)
	}
}
