// Package coder assigns diagnostic codes to stored notes by semantic
// similarity. For each note of a chart it asks the index for the single best
// catalog match and reports both the raw distance and a bounded similarity.
package coder

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
	"github.com/ChartlyAI/chartly-mvp/engine/semantic"
)

// NoteFinder abstracts the note repository.
type NoteFinder interface {
	FindByChart(ctx context.Context, chartID string) ([]domain.Note, error)
}

// SemanticIndex abstracts the semantic index query side.
type SemanticIndex interface {
	Query(ctx context.Context, text string, k int) ([]semantic.SearchResult, error)
}

// Service is the semantic coding engine.
type Service struct {
	notes  NoteFinder
	index  SemanticIndex
	logger *slog.Logger
}

// New creates a coding Service.
func New(notes NoteFinder, index SemanticIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{notes: notes, index: index, logger: logger}
}

// CodeChart produces one CodeAssignment per stored note of the chart,
// preserving the repository's creation order. A chart with zero stored notes
// is ErrChartNotFound, distinct from a chart whose notes simply matched
// nothing. Index failures propagate as ErrUpstreamUnavailable without retry.
func (s *Service) CodeChart(ctx context.Context, chartID string) ([]domain.CodeAssignment, error) {
	ns, err := s.notes.FindByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("coder: load chart %s: %w", chartID, err)
	}
	if len(ns) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrChartNotFound, chartID)
	}

	results := make([]domain.CodeAssignment, 0, len(ns))
	for _, n := range ns {
		hits, err := s.index.Query(ctx, n.Content, 1)
		if err != nil {
			return nil, fmt.Errorf("%w: query for note %s: %v", domain.ErrUpstreamUnavailable, n.NoteID, err)
		}
		results = append(results, assignment(n, hits))
	}
	s.logger.Info("chart coded", "chart_id", chartID, "notes", len(results))
	return results, nil
}

// assignment builds the CodeAssignment for one note. Zero hits is a success
// case: matched fields and scores stay nil.
func assignment(n domain.Note, hits []semantic.SearchResult) domain.CodeAssignment {
	a := domain.CodeAssignment{
		NoteID:   n.NoteID,
		NoteType: n.NoteType,
	}
	if len(hits) == 0 {
		return a
	}

	top := hits[0]
	a.Code = &top.Code
	a.ShortDescription = &top.ShortDescription
	a.LongDescription = &top.Content

	raw := float64(top.Score)
	a.RawScore = &raw
	if sim, ok := NormalizeScore(raw); ok {
		a.NormalizedSimilarity = &sim
	}
	return a
}

// NormalizeScore maps a distance to a similarity in (0, 1]: 1/(1+raw), so
// distance 0 scores 1.0 and the value decays toward 0 as distance grows. It
// reports false for anything that is not a finite non-negative number; the
// caller then leaves the similarity null rather than inventing a score.
func NormalizeScore(raw float64) (float64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 0 {
		return 0, false
	}
	return 1 / (1 + raw), true
}
