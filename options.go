package medreview

import (
	"context"

	"go.uber.org/zap"
)

// Embedder is the public text vectorization contract for embedded use.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator is the public text generation contract for embedded use.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message, prompt string) (string, error)
}

// Message is one utterance in a chat exchange.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

type clientConfig struct {
	indexDir     string
	exportsDir   string
	apiKey       string
	baseURL      string
	chatModel    string
	embModel     string
	embDims      int
	k            int
	fetchK       int
	lambda       float64
	sessionLimit int
	embedder     Embedder
	generator    Generator
	logger       *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithIndexDir sets the persisted index directory. Required.
func WithIndexDir(dir string) Option {
	return func(c *clientConfig) { c.indexDir = dir }
}

// WithExportsDir sets where report artifacts are written. Default "exports".
func WithExportsDir(dir string) Option {
	return func(c *clientConfig) { c.exportsDir = dir }
}

// WithOpenAI configures the built-in OpenAI-compatible providers.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) { c.apiKey = apiKey }
}

// WithBaseURL overrides the provider endpoint for OpenAI-compatible gateways.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithModels overrides the chat and embedding model names.
func WithModels(chatModel, embeddingModel string) Option {
	return func(c *clientConfig) {
		c.chatModel = chatModel
		c.embModel = embeddingModel
	}
}

// WithEmbeddingDimensions overrides the requested embedding width.
func WithEmbeddingDimensions(dims int) Option {
	return func(c *clientConfig) { c.embDims = dims }
}

// WithRetrieval overrides the retrieval parameters.
func WithRetrieval(k, fetchK int, lambda float64) Option {
	return func(c *clientConfig) {
		c.k = k
		c.fetchK = fetchK
		c.lambda = lambda
	}
}

// WithSessionLimit bounds per-session history length. Zero means unbounded.
func WithSessionLimit(maxTurns int) Option {
	return func(c *clientConfig) { c.sessionLimit = maxTurns }
}

// WithEmbedder plugs in a custom embedding provider instead of OpenAI.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithGenerator plugs in a custom generation provider instead of OpenAI.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) { c.generator = g }
}

// WithLogger sets the logger. Default is no logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
