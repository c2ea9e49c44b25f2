// medreview is the PubMed literature assistant: ingest abstracts into a
// local vector index, chat over them with grounded answers, and export
// report bundles.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/config"
	"github.com/docuchat/medreview/internal/db"
	dbRedis "github.com/docuchat/medreview/internal/db/redis"
	"github.com/docuchat/medreview/internal/domain"
	"github.com/docuchat/medreview/internal/index"
	logpkg "github.com/docuchat/medreview/internal/logger"
	"github.com/docuchat/medreview/internal/metrics"
	"github.com/docuchat/medreview/internal/repository/embcache"
	"github.com/docuchat/medreview/internal/retriever"
	openaiTransport "github.com/docuchat/medreview/internal/transport/openai"
)

var rootCmd = &cobra.Command{
	Use:           "medreview",
	Short:         "PubMed literature assistant with grounded answers and audited reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds everything a command needs after setup.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  db.KV // nil when no cache is configured
}

// setup loads configuration, builds the logger and registers metrics.
func setup() (*app, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	a := &app{cfg: cfg, logger: logger}
	if len(cfg.Cache.Addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		a.store = store
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// batchEmbedder supports both single and batch embedding.
type batchEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// embedder assembles the embedding chain: OpenAI base, optionally wrapped
// in the key-value cache.
func (a *app) embedder() batchEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     a.cfg.LLM.APIKey,
		BaseURL:    a.cfg.LLM.BaseURL,
		Model:      a.cfg.LLM.EmbeddingModel,
		Dimensions: a.cfg.LLM.EmbeddingDimensions,
		Logger:     a.logger,
	})
	if a.store == nil {
		return base
	}
	return embcache.New(base, a.store, metrics.EmbeddingCacheTotal, a.logger)
}

func (a *app) generator() domain.Generator {
	return openaiTransport.NewChatClient(&openaiTransport.Config{
		APIKey:      a.cfg.LLM.APIKey,
		BaseURL:     a.cfg.LLM.BaseURL,
		Model:       a.cfg.LLM.ChatModel,
		Temperature: a.cfg.LLM.Temperature,
		Logger:      a.logger,
	})
}

// openRetriever loads the persisted index and wraps it in an MMR retriever.
func (a *app) openRetriever() (*retriever.Retriever, *index.Store, error) {
	store, err := index.Open(a.cfg.Index.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open index at %s: %w", a.cfg.Index.Dir, err)
	}
	a.logger.Info("Index loaded",
		zap.String("dir", a.cfg.Index.Dir),
		zap.Int("chunks", store.Len()),
		zap.String("embedding_model", store.Manifest().EmbeddingModel),
	)
	r := retriever.New(store, a.embedder(), retriever.Config{
		K:      a.cfg.Retrieval.K,
		FetchK: a.cfg.Retrieval.FetchK,
		Lambda: a.cfg.Retrieval.Lambda,
		Logger: a.logger,
	})
	return r, store, nil
}

func (a *app) pubmedTimeout() time.Duration {
	return time.Duration(a.cfg.PubMed.TimeoutSec) * time.Second
}
