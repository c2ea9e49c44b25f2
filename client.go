// Package medreview embeds the literature-assistant pipeline in a Go
// program: load a persisted abstract index, answer questions with source
// citations, and export audited report bundles, without running the HTTP
// server.
package medreview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
	"github.com/docuchat/medreview/internal/engine"
	"github.com/docuchat/medreview/internal/index"
	"github.com/docuchat/medreview/internal/report"
	"github.com/docuchat/medreview/internal/retriever"
	"github.com/docuchat/medreview/internal/session"
	openaiTransport "github.com/docuchat/medreview/internal/transport/openai"
)

// Client is the medreview embedded entry point.
type Client struct {
	store   *index.Store
	engine  *engine.Engine
	reports *report.Generator
	logger  *zap.Logger
}

// Answer is the result of one conversational turn.
type Answer struct {
	Text    string
	Sources []string
}

// ReportResult describes a generated report bundle.
type ReportResult struct {
	Topic        string
	Sources      []string
	MarkdownPath string
	AuditPath    string
	PDFPath      string
}

// IndexInfo summarizes the loaded index.
type IndexInfo struct {
	Documents      int
	Chunks         int
	EmbeddingModel string
	BuiltAt        time.Time
}

// New creates a Client over a persisted index directory.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		exportsDir: "exports",
		chatModel:  "gpt-4.1-mini",
		embModel:   "text-embedding-3-large",
		k:          12,
		fetchK:     40,
		lambda:     0.5,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.indexDir == "" {
		return nil, errors.New("medreview: index directory required (use WithIndexDir)")
	}

	store, err := index.Open(cfg.indexDir)
	if err != nil {
		return nil, fmt.Errorf("medreview: open index: %w", err)
	}

	embedder := buildEmbedder(cfg)
	generator := buildGenerator(cfg)

	ret := retriever.New(store, embedder, retriever.Config{
		K:      cfg.k,
		FetchK: cfg.fetchK,
		Lambda: cfg.lambda,
		Logger: cfg.logger,
	})

	return &Client{
		store:   store,
		engine:  engine.New(ret, generator, session.NewStore(cfg.sessionLimit), cfg.logger),
		reports: report.NewGenerator(ret, generator, cfg.exportsDir, cfg.logger),
		logger:  cfg.logger,
	}, nil
}

func buildEmbedder(cfg *clientConfig) domain.Embedder {
	if cfg.embedder != nil {
		return &embedderAdapter{inner: cfg.embedder}
	}
	if cfg.apiKey != "" {
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.embModel,
			Dimensions: cfg.embDims,
			Logger:     cfg.logger,
		})
	}
	return noopProvider{}
}

func buildGenerator(cfg *clientConfig) domain.Generator {
	if cfg.generator != nil {
		return &generatorAdapter{inner: cfg.generator}
	}
	if cfg.apiKey != "" {
		return openaiTransport.NewChatClient(&openaiTransport.Config{
			APIKey:  cfg.apiKey,
			BaseURL: cfg.baseURL,
			Model:   cfg.chatModel,
			Logger:  cfg.logger,
		})
	}
	return noopProvider{}
}

// Ask answers one question within the given session.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (Answer, error) {
	ans, err := c.engine.Ask(ctx, sessionID, question)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return Answer{Text: ans.Text, Sources: ans.Sources}, nil
}

// Report generates the three report artifacts for a topic.
func (c *Client) Report(ctx context.Context, topic string) (*ReportResult, error) {
	rep, err := c.reports.Generate(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return &ReportResult{
		Topic:        rep.Topic,
		Sources:      rep.Sources,
		MarkdownPath: rep.MarkdownPath,
		AuditPath:    rep.AuditPath,
		PDFPath:      rep.PDFPath,
	}, nil
}

// IndexInfo reports what the loaded index contains.
func (c *Client) IndexInfo() IndexInfo {
	m := c.store.Manifest()
	return IndexInfo{
		Documents:      m.Documents,
		Chunks:         m.Chunks,
		EmbeddingModel: m.EmbeddingModel,
		BuiltAt:        m.BuiltAt,
	}
}

// Close flushes the logger.
func (c *Client) Close() {
	_ = c.logger.Sync()
}

// embedderAdapter wraps the public Embedder to satisfy internal contracts.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator to satisfy internal contracts.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, system string, history []domain.Message, prompt string) (domain.GenerationResult, error) {
	msgs := make([]Message, len(history))
	for i, m := range history {
		msgs[i] = Message{Role: string(m.Role), Content: m.Content}
	}
	text, err := a.inner.Generate(ctx, system, msgs, prompt)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{Text: text}, nil
}

// noopProvider errors on use (no API key and no custom provider configured).
type noopProvider struct{}

func (noopProvider) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"medreview: embedder not configured (use WithOpenAI or WithEmbedder)",
	)
}

func (noopProvider) Generate(_ context.Context, _ string, _ []domain.Message, _ string) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, errors.New(
		"medreview: generator not configured (use WithOpenAI or WithGenerator)",
	)
}
