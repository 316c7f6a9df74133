package search

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultRegexBudget bounds how far beyond an edit a regex rescan
// window extends. It is independent of the fixed regex match timeout.
const DefaultRegexBudget = 4096

// Match is one occurrence: a half-open byte range, sorted by Start
// and pairwise non-overlapping within a match list.
type Match struct {
	Start int
	End   int
}

// Query finds occurrences in text. Implementations are PlainQuery
// and RegexQuery.
type Query interface {
	// Find returns matches within text, offset by base, sorted and
	// non-overlapping.
	Find(text string, base int) []Match

	// MaxSpan bounds the length influence of any single match, used
	// to size incremental rescan windows.
	MaxSpan() int
}

// PlainQuery is a literal-substring query.
type PlainQuery struct {
	Needle          string
	CaseInsensitive bool
}

// NewPlain builds a plain query. An empty needle matches nothing.
func NewPlain(needle string, caseInsensitive bool) PlainQuery {
	return PlainQuery{Needle: needle, CaseInsensitive: caseInsensitive}
}

// MaxSpan returns the needle length.
func (q PlainQuery) MaxSpan() int { return len(q.Needle) }

// Find scans text for the needle. Matches never overlap: scanning
// resumes after each match end.
func (q PlainQuery) Find(text string, base int) []Match {
	if q.Needle == "" {
		return nil
	}
	if !q.CaseInsensitive {
		var out []Match
		pos := 0
		for {
			idx := strings.Index(text[pos:], q.Needle)
			if idx < 0 {
				return out
			}
			start := pos + idx
			end := start + len(q.Needle)
			out = append(out, Match{Start: base + start, End: base + end})
			pos = end
		}
	}
	return q.findFold(text, base)
}

// findFold is the case-insensitive scan. At every code-point start it
// compares the next len-in-runes characters under simple case
// folding, so multi-byte case pairs are matched without assuming the
// fold preserves byte length.
func (q PlainQuery) findFold(text string, base int) []Match {
	needleRunes := utf8.RuneCountInString(q.Needle)
	var out []Match
	for i := 0; i < len(text); {
		end, ok := advanceRunes(text, i, needleRunes)
		if !ok {
			break
		}
		if strings.EqualFold(text[i:end], q.Needle) {
			out = append(out, Match{Start: base + i, End: base + end})
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return out
}

// advanceRunes returns the byte offset n runes past start, or false
// if the text ends first.
func advanceRunes(text string, start, n int) (int, bool) {
	off := start
	for ; n > 0; n-- {
		if off >= len(text) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[off:])
		off += size
	}
	return off, true
}

// RegexQuery wraps a compiled regexp2 pattern. regexp2 supports
// look-around, so rescan windows are bounded by an explicit budget
// rather than the pattern's literal width.
type RegexQuery struct {
	re     *regexp2.Regexp
	budget int
}

// NewRegex compiles a pattern. budget <= 0 uses DefaultRegexBudget.
func NewRegex(pattern string, budget int) (RegexQuery, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return RegexQuery{}, fmt.Errorf("compile %q: %w", pattern, err)
	}
	// A stuck backtracking pattern must not wedge the edit thread's
	// rescans.
	re.MatchTimeout = 250 * time.Millisecond
	if budget <= 0 {
		budget = DefaultRegexBudget
	}
	return RegexQuery{re: re, budget: budget}, nil
}

// MaxSpan returns the look-around budget.
func (q RegexQuery) MaxSpan() int { return q.budget }

// Find runs the pattern over text. regexp2 reports rune indices; they
// are converted to byte offsets against the scanned text.
func (q RegexQuery) Find(text string, base int) []Match {
	byteOf := runeToByteTable(text)
	var out []Match
	m, err := q.re.FindStringMatch(text)
	for err == nil && m != nil {
		start := byteOf[m.Index]
		end := byteOf[m.Index+m.Length]
		if end > start { // zero-width matches are not useful results
			out = append(out, Match{Start: base + start, End: base + end})
		}
		m, err = q.re.FindNextMatch(m)
	}
	return out
}

// runeToByteTable maps each rune index of text (plus one past the
// end) to its byte offset.
func runeToByteTable(text string) []int {
	table := make([]int, 0, len(text)+1)
	for i := range text {
		table = append(table, i)
	}
	return append(table, len(text))
}
