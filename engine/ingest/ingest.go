// Package ingest persists chart note batches through a staged pipeline:
// validation, storage, and a best-effort event notification.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
	"github.com/ChartlyAI/chartly-mvp/pkg/fn"
	"github.com/ChartlyAI/chartly-mvp/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// ChartIngestedSubject carries ChartIngested events after a successful batch.
const ChartIngestedSubject = "engine.chart.ingested"

// ChartIngested is published once per chart touched by an accepted batch.
type ChartIngested struct {
	ChartID  string    `json:"chart_id"`
	Inserted int       `json:"inserted"`
	Total    int       `json:"total"`
	At       time.Time `json:"at"`
}

// NoteUpserter abstracts the note repository's write side.
type NoteUpserter interface {
	UpsertIfAbsent(ctx context.Context, n domain.Note) (bool, error)
}

// batch is the value threaded through the pipeline stages.
type batch struct {
	inputs   []domain.NoteInput
	inserted int
	perChart map[string]*ChartIngested
}

// Service validates and stores note batches. The NATS connection is optional;
// without one the notify stage is a no-op.
type Service struct {
	store  NoteUpserter
	nc     *nats.Conn
	logger *slog.Logger
	now    func() time.Time
	run    fn.Stage[batch, batch]
}

// New creates an ingestion Service.
func New(store NoteUpserter, nc *nats.Conn, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, nc: nc, logger: logger, now: time.Now}
	s.run = fn.Pipeline(
		fn.TracedStage("ingest.validate", s.validate),
		fn.TracedStage("ingest.persist", s.persist),
		fn.TracedStage("ingest.notify", s.notify),
	)
	return s
}

// Ingest stores a batch of notes and returns how many were newly created.
// Any invalid note rejects the whole batch before a single write; notes whose
// IDs already exist are skipped and not counted.
func (s *Service) Ingest(ctx context.Context, inputs []domain.NoteInput) (int, error) {
	r := s.run(ctx, batch{inputs: inputs})
	b, err := r.Unwrap()
	if err != nil {
		return 0, err
	}
	return b.inserted, nil
}

func (s *Service) validate(_ context.Context, b batch) fn.Result[batch] {
	if err := domain.ValidateBatch(b.inputs); err != nil {
		return fn.Err[batch](err)
	}
	return fn.Ok(b)
}

func (s *Service) persist(ctx context.Context, b batch) fn.Result[batch] {
	b.perChart = make(map[string]*ChartIngested)
	at := s.now()
	for _, in := range b.inputs {
		n := in.Note(at)
		inserted, err := s.store.UpsertIfAbsent(ctx, n)
		if err != nil {
			return fn.Err[batch](fmt.Errorf("%w: store note %s: %v", domain.ErrUpstreamUnavailable, n.NoteID, err))
		}

		ev := b.perChart[n.ChartID]
		if ev == nil {
			ev = &ChartIngested{ChartID: n.ChartID, At: at}
			b.perChart[n.ChartID] = ev
		}
		ev.Total++
		if inserted {
			ev.Inserted++
			b.inserted++
		}
	}
	s.logger.Info("batch ingested", "notes", len(b.inputs), "inserted", b.inserted)
	return fn.Ok(b)
}

// notify never fails the batch: the notes are already stored.
func (s *Service) notify(ctx context.Context, b batch) fn.Result[batch] {
	if s.nc == nil {
		return fn.Ok(b)
	}
	for _, ev := range b.perChart {
		if err := natsutil.Publish(ctx, s.nc, ChartIngestedSubject, *ev); err != nil {
			s.logger.Warn("chart ingested event dropped", "chart_id", ev.ChartID, "error", err)
		}
	}
	return fn.Ok(b)
}
