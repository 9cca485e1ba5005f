// Package chunk splits raw document text into bounded, overlapping windows
// suitable for embedding.
package chunk

import (
	"fmt"
	"strings"
)

// separators are tried in priority order. Splitting prefers paragraph
// breaks, then line breaks, then sentence boundaries, then word
// boundaries. The empty string is the character-level fallback for text
// with no separators at all.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter produces text windows of at most Size runes, with consecutive
// windows sharing up to Overlap runes of context.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the chunking parameters and returns a Splitter.
// Overlap must be smaller than size, otherwise every window would repeat
// the previous one entirely.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid chunking config: size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("invalid chunking config: overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("invalid chunking config: overlap (%d) must be smaller than size (%d)", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split splits text into windows. Windows are trimmed and whitespace-only
// windows are dropped, so an empty document yields no chunks and a
// document shorter than the chunk size yields exactly one.
func (s *Splitter) Split(text string) []string {
	windows := s.splitText(text, separators)
	out := make([]string, 0, len(windows))
	for _, w := range windows {
		if t := strings.TrimSpace(w); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitText splits text on the highest-priority separator it contains,
// then merges the pieces back into windows within the size budget.
func (s *Splitter) splitText(text string, seps []string) []string {
	if runeLen(text) <= s.size {
		return []string{text}
	}

	sep := ""
	var rest []string
	for i, cand := range seps {
		if cand == "" {
			break
		}
		if strings.Contains(text, cand) {
			sep = cand
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.splitRunes(text)
	}

	// SplitAfter keeps the separator attached, so windows reassemble to
	// contiguous substrings of the original text.
	return s.merge(strings.SplitAfter(text, sep), rest)
}

// merge greedily packs pieces into windows of at most s.size runes. When a
// window is emitted, trailing pieces that fit in the overlap budget are
// carried into the next window. Pieces that alone exceed the size budget
// are split further with the lower-priority separators.
func (s *Splitter) merge(pieces []string, rest []string) []string {
	var windows []string
	var cur []string
	curLen := 0
	fresh := 0 // pieces added since the last emit

	emit := func() {
		if fresh == 0 {
			return
		}
		windows = append(windows, strings.Join(cur, ""))

		var keep []string
		keepLen := 0
		for i := len(cur) - 1; i >= 0; i-- {
			l := runeLen(cur[i])
			if keepLen+l > s.overlap {
				break
			}
			keep = append([]string{cur[i]}, keep...)
			keepLen += l
		}
		cur, curLen, fresh = keep, keepLen, 0
	}

	for _, piece := range pieces {
		l := runeLen(piece)
		if l > s.size {
			emit()
			cur, curLen, fresh = nil, 0, 0
			windows = append(windows, s.splitText(piece, rest)...)
			continue
		}
		if curLen+l > s.size {
			emit()
			// The carried overlap plus the new piece may still overflow.
			for curLen+l > s.size && len(cur) > 0 {
				curLen -= runeLen(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, piece)
		curLen += l
		fresh++
	}
	emit()

	return windows
}

// splitRunes is the character-level fallback: fixed windows of size runes
// advancing by size-overlap.
func (s *Splitter) splitRunes(text string) []string {
	runes := []rune(text)
	step := s.size - s.overlap

	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}

func runeLen(s string) int {
	return len([]rune(s))
}
