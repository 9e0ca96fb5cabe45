package semantic

// SearchResult is a single vector search hit. Score is a Euclidean distance:
// non-negative, smaller means more similar. Content carries the searchable
// text (a catalog long description); Code and ShortDescription come from the
// payload metadata.
type SearchResult struct {
	ID               string            `json:"id"`
	Score            float32           `json:"score"`
	Content          string            `json:"content"`
	Code             string            `json:"icd_code"`
	ShortDescription string            `json:"short_description"`
	Meta             map[string]string `json:"meta"`
}

// VectorRecord is a single vector to store.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // content, icd_code, short_description, order_number, valid_for_transaction
}

// Document is an unembedded record handed to the Index facade.
type Document struct {
	ID      string
	Text    string
	Payload map[string]any
}
