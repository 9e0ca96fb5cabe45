// Command loadcatalog warms the semantic index with the diagnostic code
// catalog. It runs single-writer before the API takes traffic; a populated
// index is left untouched unless -force drops and recreates the collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ChartlyAI/chartly-mvp/engine/catalog"
	"github.com/ChartlyAI/chartly-mvp/engine/semantic"
	"github.com/ChartlyAI/chartly-mvp/pkg/fn"
	"github.com/ChartlyAI/chartly-mvp/pkg/ollama"
	"github.com/ChartlyAI/chartly-mvp/pkg/resilience"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		csvPath    = flag.String("csv", envOr("CATALOG_CSV", "data/icd10_codes.csv"), "path to the catalog CSV")
		qdrantURL  = flag.String("qdrant", envOr("QDRANT_URL", "localhost:6334"), "qdrant gRPC address")
		collection = flag.String("collection", envOr("QDRANT_COLLECTION", "icd_codes"), "qdrant collection name")
		ollamaURL  = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "ollama base URL")
		model      = flag.String("model", envOr("EMBED_MODEL", "nomic-embed-text"), "embedding model")
		embedRate  = flag.Float64("embed-rate", 20, "max embedding calls per second")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall timeout")
		force      = flag.Bool("force", false, "drop and recreate the collection before loading")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *csvPath, *qdrantURL, *collection, *ollamaURL, *model, *embedRate, *force, logger); err != nil {
		logger.Error("catalog load failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath, qdrantURL, collection, ollamaURL, model string, embedRate float64, force bool, logger *slog.Logger) error {
	embedder := ollama.New(ollamaURL, model)

	// Probe the embedder both to wait for it to come up and to learn the
	// vector dimensionality the collection needs.
	retry := fn.RetryOpts{MaxAttempts: 5, InitialWait: time.Second, MaxWait: 15 * time.Second}
	probe := fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[[]float32] {
		return fn.FromPair(embedder.Embed(ctx, "dimensionality probe"))
	})
	vec, err := probe.Unwrap()
	if err != nil {
		return fmt.Errorf("embedder unavailable: %w", err)
	}
	dims := len(vec)

	store, err := semantic.New(qdrantURL, collection)
	if err != nil {
		return err
	}
	defer store.Close()

	if force {
		logger.Info("dropping collection", "collection", collection)
		if err := store.DeleteCollection(ctx); err != nil {
			logger.Warn("drop failed, continuing", "err", err)
		}
	}
	if err := store.EnsureCollection(ctx, dims); err != nil {
		return err
	}

	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: embedRate, Burst: 1})
	index := semantic.NewIndex(embedder, store, logger, semantic.WithLimiter(limiter))

	loader := catalog.NewLoader(index, csvPath, logger)
	if err := loader.EnsureLoaded(ctx); err != nil {
		return err
	}

	count, err := index.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("catalog ready", "collection", collection, "entries", count, "dims", dims)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
