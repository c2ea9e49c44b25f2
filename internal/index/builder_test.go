package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docuchat/medreview/internal/domain"
)

// seqEmbedder returns a distinct vector per call, or fails after failAfter calls.
type seqEmbedder struct {
	calls     int
	failAfter int // 0 = never fail
}

func (e *seqEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.failAfter > 0 && e.calls > e.failAfter {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProvider
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{float32(e.calls), 0, 0},
		TotalTokens: 3,
	}, nil
}

func testDocs() []domain.Document {
	return []domain.Document{
		{PMID: "111", Title: "A", Journal: "Lancet", Year: "2023",
			Content: domain.FormatPage("111", "A", "Lancet", "2023", "Abstract one text.")},
		{PMID: "222", Title: "B", Journal: "BMJ", Year: "2022",
			Content: domain.FormatPage("222", "B", "BMJ", "2022", strings.Repeat("long abstract text ", 100))},
	}
}

func TestBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(NewSplitter(400, 80), &seqEmbedder{}, "test-model", 3, nil)

	m, err := b.Build(context.Background(), dir, testDocs())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", m.Documents)
	}
	if m.Chunks < 2 {
		t.Errorf("expected at least one chunk per document, got %d", m.Chunks)
	}

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Len() != m.Chunks {
		t.Errorf("store has %d chunks, manifest says %d", store.Len(), m.Chunks)
	}

	// Every chunk traces back to one of the source documents.
	for i := 0; i < store.Len(); i++ {
		pmid := store.Chunk(i).PMID
		if pmid != "111" && pmid != "222" {
			t.Errorf("chunk %d has unknown pmid %q", i, pmid)
		}
		if len(store.Vector(i)) != 3 {
			t.Errorf("chunk %d has %d dims", i, len(store.Vector(i)))
		}
	}
}

func TestBuilder_Build_EmptyDocSet(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(NewSplitter(400, 80), &seqEmbedder{}, "test-model", 3, nil)

	m, err := b.Build(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Chunks != 0 {
		t.Errorf("expected 0 chunks, got %d", m.Chunks)
	}

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestBuilder_Build_EmbeddingFailureCommitsNothing(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(NewSplitter(400, 80), &seqEmbedder{failAfter: 1}, "test-model", 3, nil)

	_, err := b.Build(context.Background(), dir, testDocs())
	if err == nil {
		t.Fatal("expected build failure")
	}
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Errorf("expected ErrEmbeddingProvider, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, chunksFile)); !os.IsNotExist(statErr) {
		t.Error("partial chunk file committed after failed build")
	}
	if _, statErr := os.Stat(filepath.Join(dir, manifestFile)); !os.IsNotExist(statErr) {
		t.Error("manifest committed after failed build")
	}
}
