package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
)

// embedBatchSize bounds the number of chunks per embedding API call.
const embedBatchSize = 64

// Builder splits documents, embeds the chunks and persists the result.
// The build is all-or-nothing: any embedding failure aborts before anything
// is committed, since a partial index degrades retrieval silently.
type Builder struct {
	splitter *Splitter
	embedder domain.Embedder
	model    string
	dims     int
	logger   *zap.Logger
}

// NewBuilder creates an index builder.
func NewBuilder(splitter *Splitter, embedder domain.Embedder, model string, dims int, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		splitter: splitter,
		embedder: embedder,
		model:    model,
		dims:     dims,
		logger:   logger,
	}
}

// Build creates and persists an index over docs in dir, replacing any
// existing index. An empty document set produces a valid empty index.
func (b *Builder) Build(ctx context.Context, dir string, docs []domain.Document) (Manifest, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, b.splitter.SplitDocument(doc)...)
	}

	b.logger.Info("Building index",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
	)

	vectors := make([][]float32, 0, len(chunks))
	var totalTokens int
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		res, err := domain.BatchEmbed(ctx, b.embedder, texts)
		if err != nil {
			return Manifest{}, fmt.Errorf("embed chunks [%d:%d]: %w", start, end, err)
		}
		vectors = append(vectors, res.Embeddings...)
		totalTokens += res.TotalTokens
	}

	dims := b.dims
	if dims == 0 && len(vectors) > 0 {
		dims = len(vectors[0])
	}

	m := Manifest{
		EmbeddingModel: b.model,
		Dimensions:     dims,
		ChunkSize:      b.splitter.chunkSize,
		ChunkOverlap:   b.splitter.overlap,
		Documents:      len(docs),
		BuiltAt:        time.Now().UTC(),
	}

	if err := Save(dir, chunks, vectors, m); err != nil {
		return Manifest{}, err
	}
	m.Chunks = len(chunks)

	b.logger.Info("Index persisted",
		zap.String("dir", dir),
		zap.Int("chunks", m.Chunks),
		zap.Int("embedding_tokens", totalTokens),
	)

	return m, nil
}
