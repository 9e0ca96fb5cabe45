package domain

// Validate reports the first missing required field of a note input, using idx
// as the note's position within its batch. An empty Content string is valid;
// only an absent field fails.
func (in NoteInput) Validate(idx int) error {
	switch {
	case in.NoteID == nil:
		return NewFieldError("note_id", idx)
	case in.ChartID == nil:
		return NewFieldError("chart_id", idx)
	case in.NoteType == nil:
		return NewFieldError("note_type", idx)
	case in.Content == nil:
		return NewFieldError("content", idx)
	}
	return nil
}

// ValidateBatch checks every note input before any of them is stored. Fail-fast:
// the first missing field invalidates the entire batch.
func ValidateBatch(inputs []NoteInput) error {
	for i, in := range inputs {
		if err := in.Validate(i); err != nil {
			return err
		}
	}
	return nil
}
