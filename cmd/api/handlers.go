package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
	"github.com/ChartlyAI/chartly-mvp/engine/segment"
	"github.com/ChartlyAI/chartly-mvp/pkg/metrics"
)

// ingester stores a validated batch of notes.
type ingester interface {
	Ingest(ctx context.Context, inputs []domain.NoteInput) (int, error)
}

// chartCoder assigns codes to a stored chart.
type chartCoder interface {
	CodeChart(ctx context.Context, chartID string) ([]domain.CodeAssignment, error)
}

// noteLister dumps every stored note.
type noteLister interface {
	ListAll(ctx context.Context) ([]domain.Note, error)
}

// apiServer bundles the services behind the HTTP handlers.
type apiServer struct {
	ingest  ingester
	coder   chartCoder
	store   noteLister
	logger  *slog.Logger
	metrics *metrics.Registry
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain error kinds onto HTTP statuses.
func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrMalformedInput), errors.Is(err, domain.ErrMissingField):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrChartNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *apiServer) count(endpoint string) {
	s.metrics.Counter(metrics.WithLabels("chartly_requests_total", "endpoint", endpoint),
		"API requests by endpoint").Inc()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- POST /api/segment ---

type segmentRequest struct {
	RawText string `json:"raw_text"`
}

// segmentedNote is a parsed note before storage, so no created_at yet.
type segmentedNote struct {
	NoteID   string `json:"note_id"`
	ChartID  string `json:"chart_id"`
	NoteType string `json:"note_type"`
	Content  string `json:"content"`
}

type segmentResponse struct {
	ChartID string          `json:"chart_id"`
	Notes   []segmentedNote `json:"notes"`
}

func (s *apiServer) handleSegment(w http.ResponseWriter, r *http.Request) {
	s.count("segment")
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrMalformedInput)
		return
	}

	chart := segment.Parse(req.RawText)
	out := segmentResponse{ChartID: chart.ChartID, Notes: make([]segmentedNote, len(chart.Notes))}
	for i, n := range chart.Notes {
		out.Notes[i] = segmentedNote{
			NoteID:   n.NoteID,
			ChartID:  n.ChartID,
			NoteType: n.NoteType,
			Content:  n.Content,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- POST /api/charts ---

type ingestRequest struct {
	ChartID string             `json:"chart_id"`
	Notes   []domain.NoteInput `json:"notes"`
}

type ingestResponse struct {
	Message       string `json:"message"`
	NotesInserted int    `json:"notes_inserted"`
}

func (s *apiServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.count("charts")
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrMalformedInput)
		return
	}

	inserted, err := s.ingest.Ingest(r.Context(), req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{
		Message:       "chart ingested",
		NotesInserted: inserted,
	})
}

// --- GET /api/notes ---

func (s *apiServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	s.count("notes")
	all, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if all == nil {
		all = []domain.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": all})
}

// --- POST /api/code ---

type codeRequest struct {
	ChartID string `json:"chart_id"`
}

type codeResponse struct {
	ChartID string                  `json:"chart_id"`
	Results []domain.CodeAssignment `json:"results"`
}

func (s *apiServer) handleCode(w http.ResponseWriter, r *http.Request) {
	s.count("code")
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrMalformedInput)
		return
	}
	if req.ChartID == "" {
		s.writeError(w, fmt.Errorf("%w: chart_id", domain.ErrMissingField))
		return
	}

	results, err := s.coder.CodeChart(r.Context(), req.ChartID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codeResponse{ChartID: req.ChartID, Results: results})
}

// --- GET /api/charts/schema ---

// handleSchema describes the stored note record for API consumers.
func (s *apiServer) handleSchema(w http.ResponseWriter, _ *http.Request) {
	s.count("schema")
	writeJSON(w, http.StatusOK, map[string]any{
		"label": "Note",
		"key":   "note_id",
		"fields": map[string]string{
			"note_id":    "string, unique",
			"chart_id":   "string, groups notes into a chart",
			"note_type":  "string, section header of the note",
			"content":    "string, may be empty",
			"created_at": "datetime, ISO-8601",
		},
	})
}
