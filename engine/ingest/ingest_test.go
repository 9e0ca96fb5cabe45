package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
)

type fakeUpserter struct {
	existing map[string]bool
	err      error
	saved    []domain.Note
}

func (f *fakeUpserter) UpsertIfAbsent(_ context.Context, n domain.Note) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.saved = append(f.saved, n)
	return !f.existing[n.NoteID], nil
}

func strp(s string) *string { return &s }

func input(id, chart, typ, content string) domain.NoteInput {
	return domain.NoteInput{
		NoteID:   strp(id),
		ChartID:  strp(chart),
		NoteType: strp(typ),
		Content:  strp(content),
	}
}

func TestIngest_CountsOnlyNewNotes(t *testing.T) {
	store := &fakeUpserter{existing: map[string]bool{"n-2": true}}
	svc := New(store, nil, nil)

	inserted, err := svc.Ingest(context.Background(), []domain.NoteInput{
		input("n-1", "case7", "HPI", "headache"),
		input("n-2", "case7", "ROS", "dizziness"),
		input("n-3", "case8", "PLAN", "rest"),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}
	if len(store.saved) != 3 {
		t.Fatalf("expected 3 upsert calls, got %d", len(store.saved))
	}
}

func TestIngest_InvalidNoteRejectsWholeBatch(t *testing.T) {
	store := &fakeUpserter{}
	svc := New(store, nil, nil)

	bad := input("n-2", "case7", "ROS", "")
	bad.Content = nil

	_, err := svc.Ingest(context.Background(), []domain.NoteInput{
		input("n-1", "case7", "HPI", "headache"),
		bad,
	})
	if !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	var fe *domain.FieldError
	if !errors.As(err, &fe) || fe.NoteIndex != 1 || fe.Field != "content" {
		t.Fatalf("wrong field error: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("validation must run before any write, got %d writes", len(store.saved))
	}
}

func TestIngest_StampsCreatedAt(t *testing.T) {
	store := &fakeUpserter{}
	svc := New(store, nil, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Ingest(context.Background(), []domain.NoteInput{
		input("n-1", "case7", "HPI", "headache"),
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got := store.saved[0].CreatedAt; !got.Equal(fixed) {
		t.Fatalf("created_at = %v, want %v", got, fixed)
	}
}

func TestIngest_StoreFailureIsUpstream(t *testing.T) {
	store := &fakeUpserter{err: errors.New("bolt down")}
	svc := New(store, nil, nil)

	_, err := svc.Ingest(context.Background(), []domain.NoteInput{
		input("n-1", "case7", "HPI", "headache"),
	})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestIngest_EmptyBatch(t *testing.T) {
	svc := New(&fakeUpserter{}, nil, nil)
	inserted, err := svc.Ingest(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch must succeed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected 0 inserted, got %d", inserted)
	}
}
