// Package retriever selects context chunks from a persisted index using
// maximal marginal relevance: over-fetch a candidate pool by query
// similarity, then greedily trade relevance against redundancy so the
// returned context is not dominated by near-duplicate chunks.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
	"github.com/docuchat/medreview/internal/metrics"
)

// Index is the read-only persisted index contract the retriever consumes.
type Index interface {
	Len() int
	Chunk(i int) domain.Chunk
	Vector(i int) []float32
}

// Retriever runs MMR retrieval over a loaded index.
type Retriever struct {
	index  Index
	embed  domain.Embedder
	k      int
	fetchK int
	lambda float64
	logger *zap.Logger
}

// Config holds retrieval parameters.
type Config struct {
	K      int     // results returned per query
	FetchK int     // candidate pool size before MMR selection
	Lambda float64 // relevance weight, 0..1; lower favors diversity
	Logger *zap.Logger
}

// New creates a retriever over a loaded index.
func New(index Index, embed domain.Embedder, cfg Config) *Retriever {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		index:  index,
		embed:  embed,
		k:      cfg.K,
		fetchK: cfg.FetchK,
		lambda: cfg.Lambda,
		logger: logger,
	}
}

// Retrieve returns up to k chunks for the query. An empty index yields an
// empty result, not an error. Deterministic for a fixed index and a fixed
// query embedding.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	if r.index.Len() == 0 {
		return nil, nil
	}

	start := time.Now()

	embRes, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	n := r.index.Len()
	sims := make([]float64, n)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		sims[i] = cosineSimilarity(embRes.Embedding, r.index.Vector(i))
		order[i] = i
	}

	// Stable keeps index order on equal scores, which makes ties deterministic.
	sort.SliceStable(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

	pool := order
	if len(pool) > r.fetchK {
		pool = pool[:r.fetchK]
	}

	vectors := make([][]float32, n)
	for _, i := range pool {
		vectors[i] = r.index.Vector(i)
	}

	selected := selectMMR(embRes.Embedding, vectors, pool, sims, r.k, r.lambda)

	chunks := make([]domain.Chunk, 0, len(selected))
	for _, i := range selected {
		chunks = append(chunks, r.index.Chunk(i))
	}

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	r.logger.Debug("retrieved context",
		zap.String("query", query),
		zap.Int("pool", len(pool)),
		zap.Int("selected", len(chunks)),
	)

	return chunks, nil
}
