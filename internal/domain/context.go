package domain

import (
	"fmt"
	"strings"
)

// contextSeparator divides chunk blocks inside an assembled prompt context.
const contextSeparator = "\n\n---\n\n"

// FormatContext renders retrieved chunks into the prompt context block,
// one `[PMID:<id>]` tagged section per chunk.
func FormatContext(chunks []Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", c.Source(), c.Content))
	}
	return strings.Join(blocks, contextSeparator)
}

// SourceList returns the deduplicated source ids of the chunks,
// preserving first-seen order.
func SourceList(chunks []Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.PMID == "" {
			continue
		}
		src := c.Source()
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
