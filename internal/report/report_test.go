package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/docuchat/medreview/internal/domain"
)

type fakeRetriever struct {
	chunks []domain.Chunk
	err    error
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string) ([]domain.Chunk, error) {
	return r.chunks, r.err
}

// scriptGenerator replays canned outputs: first call is the mini-review,
// second the claims payload.
type scriptGenerator struct {
	calls   int
	outputs []string
	errs    []error
}

func (g *scriptGenerator) Generate(_ context.Context, _ string, _ []domain.Message, _ string) (domain.GenerationResult, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return domain.GenerationResult{}, g.errs[i]
	}
	out := ""
	if i < len(g.outputs) {
		out = g.outputs[i]
	}
	return domain.GenerationResult{Text: out}, nil
}

func reportChunks() []domain.Chunk {
	return []domain.Chunk{
		{PMID: "111", Content: "abstract chunk one"},
		{PMID: "222", Content: "abstract chunk two"},
	}
}

const validClaims = `{"claims": [
	{"claim": "Statins reduce events", "evidence": "events fell by a third", "pmid": "111"},
	{"claim": "Adherence is low", "evidence": "half stopped within a year", "pmid": "222"}
]}`

func TestGenerate_WritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	gen := &scriptGenerator{outputs: []string{"# Review\n\nStatins work (PMID:111).", validClaims}}
	g := NewGenerator(&fakeRetriever{chunks: reportChunks()}, gen, dir, nil)

	rep, err := g.Generate(context.Background(), "statins")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md, err := os.ReadFile(rep.MarkdownPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if string(md) != "# Review\n\nStatins work (PMID:111)." {
		t.Errorf("unexpected markdown content: %q", md)
	}

	audit, err := os.ReadFile(rep.AuditPath)
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	var payload struct {
		Topic   string   `json:"topic"`
		Sources []string `json:"sources"`
		Claims  []Claim  `json:"claims"`
	}
	if err := json.Unmarshal(audit, &payload); err != nil {
		t.Fatalf("audit is not valid JSON: %v", err)
	}
	if payload.Topic != "statins" {
		t.Errorf("audit topic = %q", payload.Topic)
	}
	if len(payload.Sources) != 2 || payload.Sources[0] != "PMID:111" {
		t.Errorf("unexpected audit sources: %v", payload.Sources)
	}
	if len(payload.Claims) != 2 || payload.Claims[0].PMID != "111" {
		t.Errorf("unexpected audit claims: %+v", payload.Claims)
	}

	pdf, err := os.ReadFile(rep.PDFPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("pdf artifact missing PDF header")
	}

	ts := rep.GeneratedAt.Format("20060102-150405")
	for _, p := range []string{rep.MarkdownPath, rep.AuditPath, rep.PDFPath} {
		if !strings.Contains(p, ts) {
			t.Errorf("artifact %s does not share timestamp %s", p, ts)
		}
	}
}

func TestGenerate_MalformedClaimsJSON(t *testing.T) {
	dir := t.TempDir()
	gen := &scriptGenerator{outputs: []string{"review text", `{"claims": [`}}
	g := NewGenerator(&fakeRetriever{chunks: reportChunks()}, gen, dir, nil)

	_, err := g.Generate(context.Background(), "statins")
	if !errors.Is(err, domain.ErrGenerationFormat) {
		t.Fatalf("expected ErrGenerationFormat, got %v", err)
	}
	assertNoArtifacts(t, dir)
}

func TestGenerate_ClaimCitesUnknownPMID(t *testing.T) {
	dir := t.TempDir()
	claims := `{"claims": [{"claim": "c", "evidence": "e", "pmid": "999"}]}`
	gen := &scriptGenerator{outputs: []string{"review text", claims}}
	g := NewGenerator(&fakeRetriever{chunks: reportChunks()}, gen, dir, nil)

	_, err := g.Generate(context.Background(), "statins")
	if !errors.Is(err, domain.ErrGenerationFormat) {
		t.Fatalf("expected ErrGenerationFormat, got %v", err)
	}
	assertNoArtifacts(t, dir)
}

func TestGenerate_ClaimMissingField(t *testing.T) {
	tests := []struct {
		name   string
		claims string
	}{
		{"empty claim", `{"claims": [{"claim": "", "evidence": "e", "pmid": "111"}]}`},
		{"empty evidence", `{"claims": [{"claim": "c", "evidence": "", "pmid": "111"}]}`},
		{"missing pmid", `{"claims": [{"claim": "c", "evidence": "e"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			gen := &scriptGenerator{outputs: []string{"review text", tc.claims}}
			g := NewGenerator(&fakeRetriever{chunks: reportChunks()}, gen, dir, nil)

			_, err := g.Generate(context.Background(), "statins")
			if !errors.Is(err, domain.ErrGenerationFormat) {
				t.Fatalf("expected ErrGenerationFormat, got %v", err)
			}
			assertNoArtifacts(t, dir)
		})
	}
}

func TestGenerate_EmptyTopic(t *testing.T) {
	g := NewGenerator(&fakeRetriever{}, &scriptGenerator{}, t.TempDir(), nil)

	_, err := g.Generate(context.Background(), "  ")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestGenerate_ReviewErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	gen := &scriptGenerator{errs: []error{domain.ErrGenerationProvider}}
	g := NewGenerator(&fakeRetriever{chunks: reportChunks()}, gen, dir, nil)

	_, err := g.Generate(context.Background(), "statins")
	if !errors.Is(err, domain.ErrGenerationProvider) {
		t.Fatalf("expected ErrGenerationProvider, got %v", err)
	}
	assertNoArtifacts(t, dir)
}

func TestGenerate_RetrieveErrorPropagates(t *testing.T) {
	g := NewGenerator(&fakeRetriever{err: domain.ErrIndexUnavailable}, &scriptGenerator{}, t.TempDir(), nil)

	_, err := g.Generate(context.Background(), "statins")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func assertNoArtifacts(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read exports dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no artifacts after failure, found %d files", len(entries))
	}
}
