// Package catalog loads the fixed diagnostic code catalog into the semantic
// index. Warm-up is idempotent but coarse: a non-empty index is assumed fully
// loaded, so it must run single-writer before request traffic (cmd/loadcatalog
// owns that ordering).
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
	"github.com/ChartlyAI/chartly-mvp/engine/semantic"
	"github.com/google/uuid"
)

// Columns the catalog CSV must carry.
var requiredColumns = []string{
	"icd_code",
	"short_description",
	"long_description",
	"order_number",
	"valid_for_transaction",
}

// indexer is what the loader needs from the semantic index.
type indexer interface {
	Count(ctx context.Context) (uint64, error)
	Add(ctx context.Context, docs []semantic.Document) error
}

// Loader feeds the code catalog into the semantic index exactly once.
type Loader struct {
	index   indexer
	csvPath string
	logger  *slog.Logger
}

// NewLoader creates a Loader reading the catalog from csvPath.
func NewLoader(index indexer, csvPath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{index: index, csvPath: csvPath, logger: logger}
}

// EnsureLoaded indexes the catalog on first call and is a no-op once the index
// holds any entries. Partial prior loads are not detected; the repair path is
// dropping the collection and reloading (loadcatalog -force).
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	count, err := l.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: catalog count: %v", domain.ErrUpstreamUnavailable, err)
	}
	if count > 0 {
		l.logger.Info("catalog already loaded, skipping", "entries", count)
		return nil
	}

	f, err := os.Open(l.csvPath)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", l.csvPath, err)
	}
	defer f.Close()

	entries, err := ReadCatalog(f)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", l.csvPath, err)
	}

	if err := l.index.Add(ctx, Documents(entries)); err != nil {
		return fmt.Errorf("%w: catalog index: %v", domain.ErrUpstreamUnavailable, err)
	}
	l.logger.Info("catalog loaded", "entries", len(entries))
	return nil
}

// ReadCatalog parses catalog entries from CSV. Rows with a blank long
// description are excluded: they carry no searchable text.
func ReadCatalog(r io.Reader) ([]domain.CatalogEntry, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("catalog csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var entries []domain.CatalogEntry
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		e := domain.CatalogEntry{
			Code:                strings.TrimSpace(row[cols["icd_code"]]),
			ShortDescription:    strings.TrimSpace(row[cols["short_description"]]),
			LongDescription:     strings.TrimSpace(row[cols["long_description"]]),
			OrderNumber:         strings.TrimSpace(row[cols["order_number"]]),
			ValidForTransaction: strings.TrimSpace(row[cols["valid_for_transaction"]]),
		}
		if e.LongDescription == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Documents converts catalog entries to index documents. The long description
// is the searchable text; everything else rides along as payload. IDs are
// deterministic per code so a forced reload overwrites instead of duplicating.
func Documents(entries []domain.CatalogEntry) []semantic.Document {
	docs := make([]semantic.Document, len(entries))
	for i, e := range entries {
		docs[i] = semantic.Document{
			ID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("chartly/catalog/"+e.Code)).String(),
			Text: e.LongDescription,
			Payload: map[string]any{
				"content":               e.LongDescription,
				"icd_code":              e.Code,
				"short_description":     e.ShortDescription,
				"order_number":          e.OrderNumber,
				"valid_for_transaction": e.ValidForTransaction,
			},
		}
	}
	return docs
}
