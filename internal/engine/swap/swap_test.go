package swap

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/smash-editor/smash/internal/engine/buffer"
)

func TestSwapPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/home/user/file.go", "/home/user/.file.go.smash-swap"},
		{"file.go", ".file.go.smash-swap"},
		{"/a/b/c.txt", "/a/b/.c.txt.smash-swap"},
	}
	for _, tt := range tests {
		if got := SwapPath(tt.in); got != tt.want {
			t.Errorf("SwapPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Hash:      []byte{0xde, 0xad, 0xbe, 0xef},
		Path:      "/tmp/ünïcode path.go",
		CreatedAt: 1_750_000_000,
	}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Hash, h.Hash) || got.Path != h.Path || got.CreatedAt != h.CreatedAt {
		t.Errorf("round trip = %+v, want %+v", got, h)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("NOTSWAP0aaaa")))
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payloads := [][]byte{
		[]byte(`{"op":"insert"}`),
		[]byte(``),
		bytes.Repeat([]byte("x"), 10_000),
	}
	for _, p := range payloads {
		if err := WriteFrame(&buf, p); err != nil {
			t.Fatal(err)
		}
	}
	for i, want := range payloads {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d mismatch", i)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("end: err = %v, want io.EOF", err)
	}
}

func TestFrameCorruptCRC(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[6] ^= 0xFF // flip a payload byte; stored CRC no longer matches
	if _, err := ReadFrame(bytes.NewReader(data)); !errors.Is(err, ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}
}

func TestFrameTorn(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()-2] // drop the CRC tail
	if _, err := ReadFrame(bytes.NewReader(data)); !errors.Is(err, ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}
}

func commandFixtures() []buffer.EditCommand {
	return []buffer.EditCommand{
		buffer.Insert{Pos: buffer.Position{Line: 3, Col: 7}, Text: "hello\nworld"},
		buffer.Delete{Range: buffer.Range{
			Start: buffer.Position{Line: 0, Col: 1},
			End:   buffer.Position{Line: 2, Col: 4},
		}},
		buffer.Replace{
			Range: buffer.Range{
				Start: buffer.Position{Line: 1, Col: 0},
				End:   buffer.Position{Line: 1, Col: 5},
			},
			Text: "日本語",
		},
		buffer.IndentLines{Lines: []int{1, 2, 5}, Direction: buffer.IndentOut, Width: 2, UseSpaces: true},
		buffer.TransformCase{
			Range: buffer.Range{End: buffer.Position{Line: 0, Col: 3}},
			Case:  buffer.CaseTitle,
		},
		buffer.Batch{
			Label: "multi-cursor insert",
			Commands: []buffer.EditCommand{
				buffer.Insert{Pos: buffer.Position{Line: 0, Col: 1}, Text: "X"},
				buffer.Insert{Pos: buffer.Position{Line: 1, Col: 1}, Text: "X"},
			},
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	for _, cmd := range commandFixtures() {
		payload, err := EncodeCommand(cmd)
		if err != nil {
			t.Fatalf("encode %v: %v", cmd, err)
		}
		back, err := DecodeCommand(payload)
		if err != nil {
			t.Fatalf("decode %v: %v", cmd, err)
		}
		if !reflect.DeepEqual(back, cmd) {
			t.Errorf("round trip:\n got %#v\nwant %#v", back, cmd)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, payload := range []string{`not json`, `[]`, `{"op":"warp"}`} {
		if _, err := DecodeCommand([]byte(payload)); !errors.Is(err, ErrCorrupted) {
			t.Errorf("payload %q: err = %v, want ErrCorrupted", payload, err)
		}
	}
}

func testWriterConfig() WriterConfig {
	return WriterConfig{
		QueueDepth:    16,
		FsyncInterval: 50 * time.Millisecond,
		IdleFlush:     10 * time.Millisecond,
		FsyncTimeout:  time.Second,
	}
}

func TestWriterAppendAndReplay(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "note.txt")
	header := Header{Hash: []byte{1, 2, 3}, Path: doc, CreatedAt: 42}

	w, err := NewWriter(doc, header, testWriterConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	cmds := commandFixtures()
	for _, cmd := range cmds {
		if err := w.Append(cmd); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if !Exists(doc) {
		t.Fatal("swap file should exist after close")
	}
	h, err := Inspect(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !h.HashMatches([]byte{1, 2, 3}) {
		t.Error("header hash mismatch")
	}

	var replayed []buffer.EditCommand
	res, err := Replay(doc, func(c buffer.EditCommand) error {
		replayed = append(replayed, c)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Truncated {
		t.Fatalf("unexpected truncation: %v", res.Err)
	}
	if res.Applied != len(cmds) {
		t.Fatalf("Applied = %d, want %d", res.Applied, len(cmds))
	}
	for i := range cmds {
		if !reflect.DeepEqual(replayed[i], cmds[i]) {
			t.Errorf("command %d differs after replay", i)
		}
	}
}

func TestWriterAppendAfterClose(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "x.txt")
	w, err := NewWriter(doc, Header{Hash: []byte{1}, Path: doc}, testWriterConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	if err := w.Append(buffer.Insert{Text: "late"}); err != ErrClosed {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestWriterRemove(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "x.txt")
	w, err := NewWriter(doc, Header{Hash: []byte{1}, Path: doc}, testWriterConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Append(buffer.Insert{Text: "a"})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Remove(); err != nil {
		t.Fatal(err)
	}
	if Exists(doc) {
		t.Error("swap file should be gone after Remove")
	}
}

func TestWriterRemoveRequiresClose(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "x.txt")
	w, err := NewWriter(doc, Header{Hash: []byte{1}, Path: doc}, testWriterConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Remove(); err != ErrClosed {
		t.Errorf("Remove before Close: err = %v, want ErrClosed", err)
	}
}

func TestReplayStopsAtCorruptFrame(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "x.txt")
	w, err := NewWriter(doc, Header{Hash: []byte{1}, Path: doc}, testWriterConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Append(buffer.Insert{Pos: buffer.Position{}, Text: "one"})
	w.Append(buffer.Insert{Pos: buffer.Position{}, Text: "two"})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// Corrupt the tail: flip the last byte (inside the final CRC).
	path := SwapPath(doc)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	var applied int
	res, err := Replay(doc, func(buffer.EditCommand) error {
		applied++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Truncated {
		t.Error("expected truncated replay")
	}
	if !errors.Is(res.Err, ErrCorrupted) {
		t.Errorf("res.Err = %v, want ErrCorrupted", res.Err)
	}
	if res.Applied != 1 || applied != 1 {
		t.Errorf("Applied = %d, want 1 (the valid prefix)", res.Applied)
	}
}

func TestInspectMissingFile(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "never.txt")
	if Exists(doc) {
		t.Fatal("no swap expected")
	}
	if _, err := Inspect(doc); err == nil {
		t.Error("Inspect on missing file should error")
	}
}

func TestWriterSyncDurability(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "x.txt")
	w, err := NewWriter(doc, Header{Hash: []byte{9}, Path: doc}, testWriterConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.Append(buffer.Insert{Text: "durable"})
	if err := w.Sync(); err != nil {
		t.Fatal(err)
	}
	// After Sync the frame must be readable by an independent reader.
	res, err := Replay(doc, func(buffer.EditCommand) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied != 1 {
		t.Errorf("Applied = %d, want 1 after Sync", res.Applied)
	}
}
