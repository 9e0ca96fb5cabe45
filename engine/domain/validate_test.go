package domain

import (
	"errors"
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func validInput() NoteInput {
	return NoteInput{
		NoteID:   strp("note-hpi-case12"),
		ChartID:  strp("case12"),
		NoteType: strp("HISTORY OF PRESENT ILLNESS"),
		Content:  strp("Patient reports intermittent headaches."),
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validInput().Validate(0); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestValidate_EmptyContentIsValid(t *testing.T) {
	in := validInput()
	in.Content = strp("")
	if err := in.Validate(0); err != nil {
		t.Fatalf("empty content must be valid, got %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cases := []struct {
		field string
		mut   func(*NoteInput)
	}{
		{"note_id", func(in *NoteInput) { in.NoteID = nil }},
		{"chart_id", func(in *NoteInput) { in.ChartID = nil }},
		{"note_type", func(in *NoteInput) { in.NoteType = nil }},
		{"content", func(in *NoteInput) { in.Content = nil }},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mut(&in)
		err := in.Validate(3)
		if err == nil {
			t.Fatalf("%s: expected error", tc.field)
		}
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("%s: error does not unwrap to ErrMissingField: %v", tc.field, err)
		}
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected *FieldError, got %T", tc.field, err)
		}
		if fe.Field != tc.field {
			t.Errorf("expected field %q, got %q", tc.field, fe.Field)
		}
		if fe.NoteIndex != 3 {
			t.Errorf("expected note index 3, got %d", fe.NoteIndex)
		}
	}
}

func TestValidateBatch_FirstBadNoteWins(t *testing.T) {
	bad := validInput()
	bad.Content = nil
	inputs := []NoteInput{validInput(), bad, validInput()}

	err := ValidateBatch(inputs)
	if err == nil {
		t.Fatal("expected batch validation to fail")
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.NoteIndex != 1 {
		t.Errorf("expected failing index 1, got %d", fe.NoteIndex)
	}
}

func TestValidateBatch_Empty(t *testing.T) {
	if err := ValidateBatch(nil); err != nil {
		t.Fatalf("empty batch must validate: %v", err)
	}
}

func TestNoteInput_Note(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := validInput().Note(now)
	if n.NoteID != "note-hpi-case12" || n.ChartID != "case12" {
		t.Errorf("unexpected note identity: %+v", n)
	}
	if !n.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, n.CreatedAt)
	}
}
