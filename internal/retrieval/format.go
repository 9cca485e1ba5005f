package retrieval

import (
	"fmt"
	"strings"
)

// FormatContext serializes ranked results into a single annotated text
// block for the answer-generation prompt. Each chunk is preceded by a
// header naming its source document and similarity score. Ranking order
// is preserved verbatim; empty input yields an empty string, and what to
// do without context is the generation side's decision.
func FormatContext(results []QueryResult) string {
	if len(results) == 0 {
		return ""
	}
	var parts []string
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("[Source: %s | Score: %.3f]", r.Source, r.Score))
		parts = append(parts, r.Text)
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}
