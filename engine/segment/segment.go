// Package segment converts raw line-oriented chart dumps into an ordered
// sequence of structured note records. The parser is a single-pass,
// three-state line classifier: header lines open a new note, "Note ID:" lines
// identify it, and everything else accumulates as content.
package segment

import (
	"strings"
	"unicode"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
)

// noteIDMarker introduces the line carrying a note's identifier.
const noteIDMarker = "Note ID:"

// UnknownChartID is returned when no notes could be segmented.
const UnknownChartID = "unknown"

// Chart is the result of segmenting one raw chart dump. Notes preserve their
// order of appearance in the input.
type Chart struct {
	ChartID string        `json:"chart_id"`
	Notes   []domain.Note `json:"notes"`
}

// Parse segments raw chart text into notes and derives the chart identifier.
// A note is emitted only once it has both a header-derived type and a note ID;
// an in-progress note that never sees an ID line is dropped, content and all.
// Blank lines never terminate or separate notes. Empty input yields zero notes
// and ChartID "unknown"; that is not an error.
func Parse(raw string) Chart {
	var (
		notes    []domain.Note
		noteType string
		noteID   string
		content  []string
	)

	flush := func() {
		if noteID == "" {
			content = content[:0]
			return
		}
		notes = append(notes, domain.Note{
			NoteType: noteType,
			NoteID:   noteID,
			Content:  strings.TrimSpace(strings.Join(content, " ")),
		})
		content = content[:0]
	}

	// The whole dump is already in memory; splitting keeps lines of any
	// length intact rather than capping them at a scanner buffer size.
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, " \t\r")
		switch {
		case isHeader(line):
			flush()
			noteType = line
			noteID = ""
		case strings.HasPrefix(line, noteIDMarker):
			noteID = strings.TrimSpace(strings.TrimPrefix(line, noteIDMarker))
		case noteID != "" && strings.TrimSpace(line) != "":
			content = append(content, strings.TrimSpace(line))
		}
	}
	flush()

	chartID := UnknownChartID
	if len(notes) > 0 {
		chartID = DeriveChartID(notes[0].NoteID)
	}
	for i := range notes {
		notes[i].ChartID = chartID
	}
	return Chart{ChartID: chartID, Notes: notes}
}

// DeriveChartID extracts the chart identifier from a note ID by taking the
// segment after the last '-', e.g. "note-hpi-case12" -> "case12". This is a
// heuristic that couples chart identity to the source's note naming
// convention; it is the literal contract, not an inference.
func DeriveChartID(noteID string) string {
	parts := strings.Split(noteID, "-")
	return parts[len(parts)-1]
}

// isHeader reports whether a line opens a new note: non-empty, at least one
// letter, no lower-case letters, and no field-separator token.
func isHeader(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" || strings.ContainsRune(s, ':') {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
