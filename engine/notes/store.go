// Package notes provides the Neo4j-backed note repository. Notes are stored as
// :Note nodes keyed by note_id with a store-wide monotonic sequence number, so
// chart fetches come back in creation order rather than lexical id order.
package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

// Store is the Neo4j note repository.
type Store struct {
	driver     neo4j.DriverWithContext
	newSession func(ctx context.Context) runner // for testing
}

// New creates a Store on top of an open Neo4j driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// neo4jSessionAdapter adapts neo4j.SessionWithContext to the runner interface.
type neo4jSessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (s *Store) session(ctx context.Context) runner {
	if s.newSession != nil {
		return s.newSession(ctx)
	}
	return &neo4jSessionAdapter{sess: s.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// Init creates the uniqueness constraint backing at-most-one-insert-per-key.
func (s *Store) Init(ctx context.Context) error {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx,
		`CREATE CONSTRAINT note_id_unique IF NOT EXISTS FOR (n:Note) REQUIRE n.note_id IS UNIQUE`,
		nil)
	if err != nil {
		return fmt.Errorf("notes: create constraint: %w", err)
	}
	return nil
}

// upsertCypher bumps the store-wide sequence and creates the note only if its
// note_id is unseen. The fresh marker exists solely to report whether this call
// created the node; existing rows are never modified.
const upsertCypher = `
MERGE (s:NoteSeq {name: 'notes'})
ON CREATE SET s.value = 0
SET s.value = s.value + 1
WITH s.value AS seq
MERGE (n:Note {note_id: $note_id})
ON CREATE SET n.chart_id = $chart_id, n.note_type = $note_type,
              n.content = $content, n.created_at = $created_at,
              n.seq = seq, n.fresh = true
WITH n, coalesce(n.fresh, false) AS inserted
REMOVE n.fresh
RETURN inserted`

// UpsertIfAbsent atomically inserts the note unless its note_id already exists.
// Returns whether a new row was created; a duplicate is "not inserted", never
// an error, and leaves the pre-existing row untouched.
func (s *Store) UpsertIfAbsent(ctx context.Context, n domain.Note) (bool, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, upsertCypher, map[string]any{
		"note_id":    n.NoteID,
		"chart_id":   n.ChartID,
		"note_type":  n.NoteType,
		"content":    n.Content,
		"created_at": n.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("notes: upsert %s: %w", n.NoteID, err)
	}
	if !res.Next(ctx) {
		return false, fmt.Errorf("notes: upsert %s: no result row", n.NoteID)
	}
	inserted, _, err := neo4j.GetRecordValue[bool](res.Record(), "inserted")
	if err != nil {
		return false, fmt.Errorf("notes: upsert %s: %w", n.NoteID, err)
	}
	return inserted, nil
}

// FindByChart returns all notes of a chart in creation order. A chart with no
// stored notes yields an empty slice, not an error; the coding layer decides
// whether that is a not-found condition.
func (s *Store) FindByChart(ctx context.Context, chartID string) ([]domain.Note, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx,
		`MATCH (n:Note {chart_id: $chart_id}) RETURN n ORDER BY n.seq`,
		map[string]any{"chart_id": chartID})
	if err != nil {
		return nil, fmt.Errorf("notes: find by chart %s: %w", chartID, err)
	}
	return collectNotes(ctx, res)
}

// ListAll returns every stored note in creation order.
func (s *Store) ListAll(ctx context.Context) ([]domain.Note, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, `MATCH (n:Note) RETURN n ORDER BY n.seq`, nil)
	if err != nil {
		return nil, fmt.Errorf("notes: list all: %w", err)
	}
	return collectNotes(ctx, res)
}

// collectNotes reads all Note nodes from a result set.
func collectNotes(ctx context.Context, res result) ([]domain.Note, error) {
	var items []domain.Note
	for res.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](res.Record(), "n")
		if err != nil {
			return nil, err
		}
		items = append(items, noteFromProps(node.Props))
	}
	return items, nil
}

// noteFromProps constructs a Note from Neo4j node properties.
func noteFromProps(props map[string]any) domain.Note {
	n := domain.Note{
		NoteID:   strProp(props, "note_id"),
		ChartID:  strProp(props, "chart_id"),
		NoteType: strProp(props, "note_type"),
		Content:  strProp(props, "content"),
	}
	if ts, ok := props["created_at"].(time.Time); ok {
		n.CreatedAt = ts
	}
	return n
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}
