package semantic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ChartlyAI/chartly-mvp/pkg/resilience"
)

// Embedder turns text into a fixed-dimension vector. Implemented by
// pkg/ollama; the engine never sees the model behind it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// vectorStorer is what the Index needs from the vector store.
type vectorStorer interface {
	Upsert(ctx context.Context, records []VectorRecord) error
	Search(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error)
	Count(ctx context.Context) (uint64, error)
}

// Index is the semantic index service object: one explicit instance built at
// process start and handed to the catalog loader and coding engine, replacing
// any notion of a lazily-built process-wide singleton.
type Index struct {
	embed   Embedder
	store   vectorStorer
	limiter *resilience.Limiter
	logger  *slog.Logger
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithLimiter throttles embedding calls during bulk indexing.
func WithLimiter(l *resilience.Limiter) IndexOption {
	return func(ix *Index) { ix.limiter = l }
}

// NewIndex creates an Index over an embedder and a vector store.
func NewIndex(embed Embedder, store vectorStorer, logger *slog.Logger, opts ...IndexOption) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{embed: embed, store: store, logger: logger}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Add embeds and stores documents. Each embedding call is a single attempt;
// the first failure aborts the batch and propagates.
func (ix *Index) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	records := make([]VectorRecord, len(docs))
	for i, d := range docs {
		if ix.limiter != nil {
			if err := ix.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("semantic: limiter: %w", err)
			}
		}
		vec, err := ix.embed.Embed(ctx, d.Text)
		if err != nil {
			return fmt.Errorf("semantic: embed document %s: %w", d.ID, err)
		}
		records[i] = VectorRecord{ID: d.ID, Embedding: vec, Payload: d.Payload}
	}

	if err := ix.store.Upsert(ctx, records); err != nil {
		return err
	}
	ix.logger.Info("indexed documents", "count", len(records))
	return nil
}

// Query embeds the text and returns the k nearest matches. Empty text is a
// legal query. Zero hits is a successful empty result, not an error.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]SearchResult, error) {
	vec, err := ix.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}
	return ix.store.Search(ctx, vec, k)
}

// Count reports how many documents the index holds.
func (ix *Index) Count(ctx context.Context) (uint64, error) {
	return ix.store.Count(ctx)
}
