package swap

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/smash-editor/smash/internal/engine/buffer"
)

// Exists reports whether a swap file is present for the document.
func Exists(docPath string) bool {
	_, err := os.Stat(SwapPath(docPath))
	return err == nil
}

// Inspect reads just the header of a document's swap file.
func Inspect(docPath string) (Header, error) {
	f, err := os.Open(SwapPath(docPath))
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	return ReadHeader(bufio.NewReader(f))
}

// HashMatches reports whether the swap header's hash equals the given
// content hash of the on-disk file. A mismatch means the file changed
// behind the journal; replay would corrupt it, so the caller must
// surface the swap content as a side document instead.
func (h Header) HashMatches(contentHash []byte) bool {
	return len(h.Hash) > 0 && bytes.Equal(h.Hash, contentHash)
}

// ReplayResult reports what a replay accomplished.
type ReplayResult struct {
	Applied   int   // commands successfully applied
	Truncated bool  // a bad frame stopped replay early
	Err       error // the frame or apply error that stopped it
}

// Replay streams CRC-valid commands from the swap file through apply
// in journal order. A torn or corrupt frame stops the walk; the
// partial state applied so far is reported rather than rolled back,
// so the caller can offer it to the user.
func Replay(docPath string, apply func(buffer.EditCommand) error) (ReplayResult, error) {
	f, err := os.Open(SwapPath(docPath))
	if err != nil {
		return ReplayResult{}, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if _, err := ReadHeader(r); err != nil {
		return ReplayResult{Err: err}, err
	}

	var res ReplayResult
	for {
		payload, err := ReadFrame(r)
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			res.Truncated = true
			res.Err = err
			return res, nil
		}
		cmd, err := DecodeCommand(payload)
		if err != nil {
			res.Truncated = true
			res.Err = err
			return res, nil
		}
		if err := apply(cmd); err != nil {
			res.Truncated = true
			res.Err = fmt.Errorf("replaying command %d: %w", res.Applied, err)
			return res, nil
		}
		res.Applied++
	}
}
