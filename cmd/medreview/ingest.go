package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/index"
	"github.com/docuchat/medreview/internal/pubmed"
)

var (
	ingestQuery   string
	ingestLimit   int
	ingestMinDate string
	ingestMaxDate string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Search PubMed, fetch abstracts and build the local index",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "PubMed search query")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 40, "maximum number of articles to fetch")
	ingestCmd.Flags().StringVar(&ingestMinDate, "mindate", "2020/01/01", "earliest publication date (YYYY/MM/DD)")
	ingestCmd.Flags().StringVar(&ingestMaxDate, "maxdate", "2025/12/31", "latest publication date (YYYY/MM/DD)")
	_ = ingestCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	client := pubmed.NewClient(pubmed.Config{
		BaseURL: a.cfg.PubMed.BaseURL,
		Timeout: a.pubmedTimeout(),
		Logger:  a.logger,
	})

	pmids, total, err := client.Search(ctx, ingestQuery, ingestLimit, pubmed.DateRange{
		Min: ingestMinDate,
		Max: ingestMaxDate,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	cmd.Printf("Total PubMed hits: %d | Fetching: %d PMIDs\n", total, len(pmids))

	raw, err := client.Fetch(ctx, pmids)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	docs, err := pubmed.ParseArticles(raw)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	cmd.Printf("Parsed abstracts with text: %d\n", len(docs))

	builder := index.NewBuilder(
		index.NewSplitter(a.cfg.Index.ChunkSize, a.cfg.Index.ChunkOverlap),
		a.embedder(),
		a.cfg.LLM.EmbeddingModel,
		a.cfg.LLM.EmbeddingDimensions,
		a.logger,
	)
	m, err := builder.Build(ctx, a.cfg.Index.Dir, docs)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	a.logger.Info("Ingest complete",
		zap.Int("hits", total),
		zap.Int("documents", m.Documents),
		zap.Int("chunks", m.Chunks),
	)
	cmd.Printf("Chunks indexed: %d\n", m.Chunks)
	cmd.Printf("Index saved to: %s\n", a.cfg.Index.Dir)
	return nil
}
