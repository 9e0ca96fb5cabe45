// Package domain defines core record types, error kinds, and validation for the
// chart coding pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// Note is one segmented clinical note within a patient chart. Notes sharing a
// ChartID together form one chart; NoteID is the sole deduplication key and is
// immutable once stored.
type Note struct {
	NoteID    string    `json:"note_id"`
	ChartID   string    `json:"chart_id"`
	NoteType  string    `json:"note_type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteInput is a note as submitted for ingestion. Pointer fields distinguish an
// absent field from a legitimately empty one: Content may be the empty string,
// but a note with no content field at all is malformed.
type NoteInput struct {
	NoteID   *string `json:"note_id"`
	ChartID  *string `json:"chart_id"`
	NoteType *string `json:"note_type"`
	Content  *string `json:"content"`
}

// Note converts a validated input into a stored Note stamped at createdAt.
// Call Validate first; Note panics on nil fields.
func (in NoteInput) Note(createdAt time.Time) Note {
	return Note{
		NoteID:    *in.NoteID,
		ChartID:   *in.ChartID,
		NoteType:  *in.NoteType,
		Content:   *in.Content,
		CreatedAt: createdAt,
	}
}

// CatalogEntry is one reference diagnostic code. LongDescription is the text
// fed to the semantic index; the remaining fields travel as payload metadata.
type CatalogEntry struct {
	Code                string `json:"icd_code"`
	ShortDescription    string `json:"short_description"`
	LongDescription     string `json:"long_description"`
	OrderNumber         string `json:"order_number"`
	ValidForTransaction string `json:"valid_for_transaction"`
}

// CodeAssignment is the result of coding a single note. The matched fields and
// scores are nil when the index returned no hit, or (for
// NormalizedSimilarity) when the raw score is not a finite non-negative number.
type CodeAssignment struct {
	NoteID               string   `json:"note_id"`
	NoteType             string   `json:"note_type"`
	Code                 *string  `json:"icd_code"`
	ShortDescription     *string  `json:"short_description"`
	LongDescription      *string  `json:"long_description"`
	RawScore             *float64 `json:"score"`
	NormalizedSimilarity *float64 `json:"normalized_similarity"`
}
