package rope

import "unicode/utf8"

// Chunk sizing. Chunks produced by a build stay within
// [minChunk, maxChunk] bytes except for the final chunk, which may be
// shorter; edits split chunks at the edit offset and can leave chunks
// shorter than minChunk.
const (
	minChunk    = 128
	maxChunk    = 512
	targetChunk = 320
)

// chunk is an immutable bounded string with precomputed metrics.
type chunk struct {
	text string
	sum  Summary
}

func newChunk(text string) chunk {
	return chunk{text: text, sum: Summarize(text)}
}

func (c chunk) len() int { return len(c.text) }

// splitAt splits the chunk at a byte offset. The caller guarantees the
// offset is a code-point boundary.
func (c chunk) splitAt(off int) (chunk, chunk) {
	if off <= 0 {
		return chunk{}, c
	}
	if off >= len(c.text) {
		return c, chunk{}
	}
	return newChunk(c.text[:off]), newChunk(c.text[off:])
}

// chunkify splits text into chunks of roughly targetChunk bytes,
// always cutting on code-point boundaries and preferring to cut just
// after a newline so lines tend not to straddle chunks.
func chunkify(text string) []chunk {
	if len(text) == 0 {
		return nil
	}
	if len(text) <= maxChunk {
		return []chunk{newChunk(text)}
	}

	var chunks []chunk
	for len(text) > maxChunk {
		cut := cutPoint(text)
		chunks = append(chunks, newChunk(text[:cut]))
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, newChunk(text))
	}
	return chunks
}

// cutPoint picks a split position near targetChunk.
func cutPoint(text string) int {
	cut := targetChunk
	if cut > len(text) {
		return len(text)
	}

	// Prefer a newline within a small window around the target.
	lo := cut - minChunk/2
	hi := cut + minChunk/2
	if hi > len(text) {
		hi = len(text)
	}
	for i := cut; i < hi; i++ {
		if text[i] == '\n' {
			return i + 1
		}
	}
	for i := cut - 1; i >= lo; i-- {
		if text[i] == '\n' {
			return i + 1
		}
	}

	// Otherwise back up to a code-point boundary.
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = targetChunk // pathological; split mid-sequence is impossible for valid UTF-8 this long
	}
	return cut
}
