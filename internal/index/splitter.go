package index

import (
	"strings"

	"github.com/docuchat/medreview/internal/domain"
)

// Splitter cuts document text into overlapping chunks bounded by a character
// budget. Cut points prefer paragraph breaks, then line breaks, then word
// boundaries, falling back to a hard cut; the overlap keeps continuity of
// meaning across boundaries. Splitting is deterministic: the same text and
// parameters always yield the same chunk sequence.
type Splitter struct {
	chunkSize int // max chunk length in characters
	overlap   int // characters carried from the end of one chunk into the next
}

// NewSplitter creates a splitter. overlap must be smaller than chunkSize
// (enforced by config validation).
func NewSplitter(chunkSize, overlap int) *Splitter {
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// SplitDocument splits a document's content into chunks inheriting its metadata.
func (s *Splitter) SplitDocument(doc domain.Document) []domain.Chunk {
	pieces := s.split(doc.Content)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, domain.Chunk{
			PMID:    doc.PMID,
			Title:   doc.Title,
			Journal: doc.Journal,
			Year:    doc.Year,
			Ordinal: i,
			Content: p,
		})
	}
	return chunks
}

// split cuts text into pieces of at most chunkSize characters.
func (s *Splitter) split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			pieces = append(pieces, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := s.findCut(runes, start, end)
		pieces = append(pieces, strings.TrimSpace(string(runes[start:cut])))

		next := cut - s.overlap
		if next <= start {
			// Overlap would stall the walk; force progress.
			next = start + 1
		}
		start = next
	}

	// TrimSpace may leave empty pieces when a window lands on whitespace.
	out := pieces[:0]
	for _, p := range pieces {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findCut picks the cut position in (start, end]: the last paragraph break in
// the window, else the last newline, else the last space, else a hard cut.
// Boundaries in the first half of the window are ignored so chunks stay
// reasonably full.
func (s *Splitter) findCut(runes []rune, start, end int) int {
	minCut := start + s.chunkSize/2

	window := string(runes[start:end])
	for _, sep := range []string{"\n\n", "\n", " "} {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			cut := start + len([]rune(window[:idx]))
			if cut > minCut {
				return cut
			}
		}
	}
	return end
}
