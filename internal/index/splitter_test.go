package index

import (
	"strings"
	"testing"

	"github.com/docuchat/medreview/internal/domain"
)

func TestSplitter_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1200, 200)
	doc := domain.Document{PMID: "1", Title: "T", Journal: "J", Year: "2023", Content: "short abstract"}

	chunks := s.SplitDocument(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short abstract" {
		t.Errorf("unexpected content: %q", chunks[0].Content)
	}
	if chunks[0].Ordinal != 0 {
		t.Errorf("expected ordinal 0, got %d", chunks[0].Ordinal)
	}
}

func TestSplitter_InheritsMetadata(t *testing.T) {
	s := NewSplitter(50, 10)
	doc := domain.Document{
		PMID:    "12345",
		Title:   "A title",
		Journal: "Lancet",
		Year:    "2021",
		Content: strings.Repeat("alpha beta gamma delta ", 20),
	}

	chunks := s.SplitDocument(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.PMID != "12345" || c.Title != "A title" || c.Journal != "Lancet" || c.Year != "2021" {
			t.Errorf("chunk %d lost metadata: %+v", i, c)
		}
		if c.Ordinal != i {
			t.Errorf("chunk %d has ordinal %d", i, c.Ordinal)
		}
	}
}

func TestSplitter_RespectsBudget(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)

	for i, p := range s.split(text) {
		if n := len([]rune(p)); n > 100 {
			t.Errorf("piece %d exceeds budget: %d chars", i, n)
		}
	}
}

func TestSplitter_Idempotent(t *testing.T) {
	s := NewSplitter(80, 15)
	text := strings.Repeat("one two three four five six seven eight nine ten. ", 25)

	first := s.split(text)
	second := s.split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs:\n%q\n%q", i, first[i], second[i])
		}
	}
}

func TestSplitter_OverlapCarriesContext(t *testing.T) {
	s := NewSplitter(60, 20)
	text := strings.Repeat("word ", 60)

	pieces := s.split(text)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	// Each piece after the first should start with text the previous one ends with.
	for i := 1; i < len(pieces); i++ {
		head := pieces[i]
		if len(head) > 10 {
			head = head[:10]
		}
		if !strings.Contains(pieces[i-1], strings.TrimSpace(head)) {
			t.Errorf("piece %d does not overlap its predecessor", i)
		}
	}
}

func TestSplitter_PrefersParagraphBreak(t *testing.T) {
	para1 := strings.Repeat("a", 70)
	para2 := strings.Repeat("b", 70)
	s := NewSplitter(100, 10)

	pieces := s.split(para1 + "\n\n" + para2)
	if len(pieces) < 2 {
		t.Fatalf("expected 2+ pieces, got %d", len(pieces))
	}
	if pieces[0] != para1 {
		t.Errorf("first piece should end at the paragraph break, got %q", pieces[0])
	}
}

func TestSplitter_EmptyText(t *testing.T) {
	s := NewSplitter(100, 10)
	if pieces := s.split(""); pieces != nil {
		t.Errorf("expected nil for empty text, got %v", pieces)
	}
}
