package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/encoding"
	"github.com/smash-editor/smash/internal/engine/rope"
	"github.com/smash-editor/smash/internal/engine/swap"
)

// RecoveryOffer describes a swap file found while opening. When
// HashMatches is true the caller may invoke ReplaySwap to restore
// the unsaved edits; when false the on-disk file changed since the
// journal was written and the swap content must only be shown as a
// side document. Err is set when the swap file was present but its
// header was unreadable — non-fatal, the buffer opens without replay.
type RecoveryOffer struct {
	Header      swap.Header
	HashMatches bool
	Err         error
}

// Open loads a file into a new session. A missing file yields an
// empty buffer bound to the path, provided the parent directory
// exists. The returned RecoveryOffer is nil when no swap file was
// found.
func Open(path string, opts ...Option) (*Session, *RecoveryOffer, error) {
	s := newSession(opts...)

	data, size, err := readDocument(path, s.cfg.MmapThreshold)
	if err != nil {
		return nil, nil, err
	}

	if data == nil && size > 0 {
		// Large plain file: stream the rope from a memory-mapped
		// reader instead of materializing the bytes.
		if err := s.loadMapped(path, size); err != nil {
			return nil, nil, err
		}
	} else {
		if err := s.loadBytes(path, data); err != nil {
			return nil, nil, err
		}
	}

	offer := s.inspectSwap(path)
	return s, offer, nil
}

// readDocument stats and reads the file. It returns (nil, size, nil)
// when the file is large enough for the memory-mapped path. A
// missing file returns (nil, 0, nil) after verifying the parent
// directory exists.
func readDocument(path string, mmapThreshold int64) ([]byte, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %v", buffer.ErrIO, err)
		}
		parent := filepath.Dir(path)
		if _, perr := os.Stat(parent); perr != nil {
			return nil, 0, fmt.Errorf("%w: parent directory %s: %v", buffer.ErrIO, parent, perr)
		}
		return nil, 0, nil
	}
	if mmapThreshold > 0 && info.Size() >= mmapThreshold {
		return nil, info.Size(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", buffer.ErrIO, err)
	}
	return data, info.Size(), nil
}

// loadBytes decodes a fully read file into the buffer.
func (s *Session) loadBytes(path string, data []byte) error {
	text, enc, err := encoding.Decode(data, s.fallback)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", buffer.ErrEncoding, path, err)
	}
	b, err := buffer.FromText(text,
		buffer.WithPath(path),
		buffer.WithEncoding(enc),
		buffer.WithHashFunc(hashRope),
	)
	if err != nil {
		return err
	}
	s.buf = b
	s.diskHash = HashBytes(data)
	return nil
}

// loadMapped streams a large file through a memory-mapped reader. A
// BOM or non-LF line endings in the head fall back to the full read
// path: both require transforming the content anyway.
func (s *Session) loadMapped(path string, size int64) error {
	r, err := mmap.Open(path)
	if err != nil {
		return fmt.Errorf("%w: mmap %s: %v", buffer.ErrIO, path, err)
	}
	defer r.Close()

	head := make([]byte, min64(8192, size))
	if _, err := r.ReadAt(head, 0); err != nil {
		return fmt.Errorf("%w: %v", buffer.ErrIO, err)
	}
	if hasBOM(head) || encoding.DetectLineEnding(string(head)) != encoding.LF {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return fmt.Errorf("%w: %v", buffer.ErrIO, rerr)
		}
		return s.loadBytes(path, data)
	}

	content, err := rope.FromReaderAt(r, size)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", buffer.ErrEncoding, path, err)
	}
	s.buf = buffer.FromRope(content,
		buffer.WithPath(path),
		buffer.WithEncoding(encoding.UTF8),
		buffer.WithHashFunc(hashRope),
	)
	s.diskHash = hashRope(content)
	return nil
}

func hasBOM(head []byte) bool {
	return len(head) >= 2 &&
		(head[0] == 0xEF && len(head) >= 3 && head[1] == 0xBB && head[2] == 0xBF ||
			head[0] == 0xFF && head[1] == 0xFE ||
			head[0] == 0xFE && head[1] == 0xFF)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// inspectSwap checks for a swap file and classifies it.
func (s *Session) inspectSwap(path string) *RecoveryOffer {
	if !swap.Exists(path) {
		return nil
	}
	header, err := swap.Inspect(path)
	if err != nil {
		s.log.Warnf("swap file unreadable, opening without replay: %v", err)
		return &RecoveryOffer{Err: err}
	}
	return &RecoveryOffer{
		Header:      header,
		HashMatches: header.HashMatches(s.diskHash),
	}
}

// ReplaySwap replays the journal through the edit pipeline with
// origin Replay. Commands re-enter validation one by one; a bad CRC
// or a command that no longer validates stops replay, leaving the
// valid prefix applied for the user to inspect. The buffer ends
// dirty (the replayed edits are unsaved by definition).
func (s *Session) ReplaySwap() (swap.ReplayResult, error) {
	path := s.buf.Path()
	if path == "" {
		return swap.ReplayResult{}, fmt.Errorf("%w: scratch buffer has no swap", buffer.ErrIO)
	}
	// Collect the journal fully before applying: the first applied
	// command recreates the swap file, which would otherwise truncate
	// the journal out from under the reader.
	var cmds []buffer.EditCommand
	res, err := swap.Replay(path, func(cmd buffer.EditCommand) error {
		cmds = append(cmds, cmd)
		return nil
	})
	if err != nil {
		return res, err
	}

	applied := 0
	for _, cmd := range cmds {
		if _, aerr := s.ApplyEdit(cmd, buffer.OriginReplay); aerr != nil {
			res.Truncated = true
			res.Err = fmt.Errorf("replaying command %d: %w", applied, aerr)
			break
		}
		applied++
	}
	res.Applied = applied

	if res.Truncated {
		s.log.Warnf("swap replay stopped after %d commands: %v", res.Applied, res.Err)
	}
	return res, nil
}

// Save writes the buffer to its bound path.
func (s *Session) Save() error {
	if s.buf.Path() == "" {
		return fmt.Errorf("%w: buffer has no path", buffer.ErrIO)
	}
	return s.SaveAs(s.buf.Path())
}

// SaveAs writes the buffer to path and rebinds it. The detected
// line-ending style and encoding are re-applied; when configured,
// trailing whitespace is trimmed through the pipeline first so the
// trim is a normal undoable commit. On success the swap journal is
// truncated and deleted and old history becomes coalescable.
func (s *Session) SaveAs(path string) error {
	s.buf.SetPath(path)

	if s.cfg.TrimTrailingWhitespace {
		if err := s.trimTrailingWhitespace(); err != nil {
			return err
		}
	}

	text := encoding.ApplyLineEnding(s.buf.Rope().String(), s.buf.LineEnding())
	data, err := encoding.Encode(text, s.buf.Encoding())
	if err != nil {
		return fmt.Errorf("%w: %v", buffer.ErrEncoding, err)
	}

	// Write-temp-then-rename so a crash mid-save never leaves a torn
	// document.
	tmp := path + ".smash-tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", buffer.ErrIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", buffer.ErrIO, err)
	}

	s.buf.MarkSaved()
	s.diskHash = HashBytes(data)

	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.log.Warnf("swap close after save: %v", err)
		}
		if err := s.journal.Remove(); err != nil {
			s.log.Warnf("swap remove after save: %v", err)
		}
		s.journal = nil
	}

	s.history.Coalesce(s.clock())
	return nil
}

// trimTrailingWhitespace submits the trim diff as one Batch before
// the bytes hit disk, so saving with trim enabled stays undoable.
func (s *Session) trimTrailingWhitespace() error {
	ranges := encoding.TrimRanges(s.buf.Rope())
	if len(ranges) == 0 {
		return nil
	}
	r := s.buf.Rope()
	edits := make([]buffer.Edit, 0, len(ranges))
	delta := 0
	for _, rg := range ranges {
		edits = append(edits, buffer.Edit{Start: rg[0] + delta, OldLen: rg[1] - rg[0]})
		delta -= rg[1] - rg[0]
	}
	_, err := s.ApplyEdit(editsToBatch(r, edits, "trim trailing whitespace"), buffer.OriginLocal)
	return err
}
