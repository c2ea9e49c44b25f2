// Package report produces the one-shot report bundle for a topic: a
// markdown mini-review, a machine-checkable claim audit, and a rendered
// PDF. Artifacts share one timestamp and are written only after the claim
// set validates against the retrieved context.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
)

const pdfTitle = "DocuChat MedReview Report"

const reviewSystemPrompt = "Write a concise mini-review based ONLY on the provided abstracts.\n" +
	"Requirements:\n" +
	"- Use markdown headings.\n" +
	"- Every key claim must include PMID citations.\n" +
	"- Do not invent numbers not present.\n" +
	"- End with a 'Not medical advice' note."

const claimsSystemPrompt = "Extract 6-10 verifiable claims supported by the provided abstracts.\n" +
	"Return STRICT JSON ONLY in this exact schema:\n" +
	`{"claims": [{"claim": "...", "evidence": "short quote/paraphrase", "pmid": "12345678"}]}` + "\n" +
	"Rules: only use PMIDs present in context; if unsure, omit the claim."

// ContextRetriever supplies chunks relevant to the report topic.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Chunk, error)
}

// Claim is one audited statement tied to a source abstract.
type Claim struct {
	Claim    string `json:"claim"`
	Evidence string `json:"evidence"`
	PMID     string `json:"pmid"`
}

// Report describes a completed report bundle.
type Report struct {
	Topic        string
	Review       string
	Claims       []Claim
	Sources      []string
	GeneratedAt  time.Time
	MarkdownPath string
	AuditPath    string
	PDFPath      string
}

type auditPayload struct {
	Topic   string   `json:"topic"`
	Sources []string `json:"sources"`
	Claims  []Claim  `json:"claims"`
}

// Generator builds report bundles.
type Generator struct {
	retriever  ContextRetriever
	generator  domain.Generator
	exportsDir string
	logger     *zap.Logger
	now        func() time.Time
}

// NewGenerator creates a report generator writing artifacts under exportsDir.
func NewGenerator(retriever ContextRetriever, generator domain.Generator, exportsDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		retriever:  retriever,
		generator:  generator,
		exportsDir: exportsDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate retrieves context for the topic, generates the mini-review and
// the claim set, validates the claims, and writes the three artifacts.
// Nothing is written when validation fails.
func (g *Generator) Generate(ctx context.Context, topic string) (*Report, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: empty topic", domain.ErrInvalidArgument)
	}

	chunks, err := g.retriever.Retrieve(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	contextBlock := domain.FormatContext(chunks)
	sources := domain.SourceList(chunks)

	reviewPrompt := fmt.Sprintf("Topic: %s\n\nAbstract context:\n%s\n\nMini-review:", topic, contextBlock)
	reviewRes, err := g.generator.Generate(ctx, reviewSystemPrompt, nil, reviewPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate mini-review: %w", err)
	}

	claimsRes, err := g.generator.Generate(ctx, claimsSystemPrompt, nil, "Context:\n"+contextBlock)
	if err != nil {
		return nil, fmt.Errorf("generate claims: %w", err)
	}

	claims, err := parseClaims(claimsRes.Text, chunks)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Topic:       topic,
		Review:      reviewRes.Text,
		Claims:      claims,
		Sources:     sources,
		GeneratedAt: g.now().UTC(),
	}
	if err := g.writeArtifacts(rep); err != nil {
		return nil, err
	}

	g.logger.Info("report generated",
		zap.String("topic", topic),
		zap.Int("claims", len(claims)),
		zap.Int("sources", len(sources)),
	)
	return rep, nil
}

// parseClaims decodes the strict-JSON claim payload and checks every claim
// against the retrieved context. Any deviation from the contract fails the
// whole report rather than silently dropping claims.
func parseClaims(raw string, chunks []domain.Chunk) ([]Claim, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var payload struct {
		Claims []Claim `json:"claims"`
	}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: claims payload is not valid JSON: %v", domain.ErrGenerationFormat, err)
	}

	known := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		known[c.PMID] = struct{}{}
	}

	for i, c := range payload.Claims {
		if strings.TrimSpace(c.Claim) == "" {
			return nil, fmt.Errorf("%w: claim %d has no claim text", domain.ErrGenerationFormat, i)
		}
		if strings.TrimSpace(c.Evidence) == "" {
			return nil, fmt.Errorf("%w: claim %d has no evidence", domain.ErrGenerationFormat, i)
		}
		if strings.TrimSpace(c.PMID) == "" {
			return nil, fmt.Errorf("%w: claim %d has no pmid", domain.ErrGenerationFormat, i)
		}
		if _, ok := known[c.PMID]; !ok {
			return nil, fmt.Errorf("%w: claim %d cites pmid %s not present in context", domain.ErrGenerationFormat, i, c.PMID)
		}
	}
	return payload.Claims, nil
}

func (g *Generator) writeArtifacts(rep *Report) error {
	if err := os.MkdirAll(g.exportsDir, 0o750); err != nil {
		return fmt.Errorf("create exports dir: %w", err)
	}

	ts := rep.GeneratedAt.Format("20060102-150405")
	rep.MarkdownPath = filepath.Join(g.exportsDir, fmt.Sprintf("mini_review_%s.md", ts))
	rep.AuditPath = filepath.Join(g.exportsDir, fmt.Sprintf("audit_%s.json", ts))
	rep.PDFPath = filepath.Join(g.exportsDir, fmt.Sprintf("report_%s.pdf", ts))

	if err := os.WriteFile(rep.MarkdownPath, []byte(rep.Review), 0o640); err != nil {
		return fmt.Errorf("write mini-review: %w", err)
	}

	audit, err := json.MarshalIndent(auditPayload{
		Topic:   rep.Topic,
		Sources: rep.Sources,
		Claims:  rep.Claims,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit: %w", err)
	}
	if err := os.WriteFile(rep.AuditPath, audit, 0o640); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}

	if err := buildPDF(rep.PDFPath, pdfTitle, rep); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
