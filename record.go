package headlines

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
)

// CSV column names. Order and spelling are read by downstream cataloguing.
const (
	ColumnCategory = "categoria"
	ColumnHeadline = "titular"
	ColumnLink     = "enlace"
	ColumnFullText = "texto_completo"
)

// TextStatus describes how a record's full text was obtained.
type TextStatus string

const (
	// TextExtracted means the selectors matched and FullText is set.
	TextExtracted TextStatus = "extracted"
	// TextFetchFailed means the article could not be retrieved.
	TextFetchFailed TextStatus = "fetch_failed"
	// TextNoContent means the page was fetched but no selector matched.
	TextNoContent TextStatus = "no_content"
	// TextNotFetched is used by runs that do not enrich articles.
	TextNotFetched TextStatus = "not_fetched"
)

// HeadlineRecord is one news link found on a homepage.
type HeadlineRecord struct {
	Category string `json:"categoria"`
	Headline string `json:"titular"`
	Link     string `json:"enlace"`
	// FullText is empty unless TextStatus is TextExtracted.
	FullText   string     `json:"texto_completo"`
	TextStatus TextStatus `json:"text_status"`
	// FailureReason is the fetch failure reason when TextStatus is
	// TextFetchFailed.
	FailureReason string `json:"failure_reason,omitempty"`
}

// ResultTable is the ordered output of one pipeline run.
type ResultTable struct {
	// RunID identifies the pipeline run that produced the table.
	RunID uuid.UUID
	// Enriched tables carry the texto_completo column.
	Enriched bool
	Records  []HeadlineRecord
}

// NewResultTable returns an empty table with its column set fixed.
func NewResultTable(enriched bool) *ResultTable {
	return &ResultTable{Enriched: enriched, Records: []HeadlineRecord{}}
}

// Columns returns the CSV header for the table.
func (t *ResultTable) Columns() []string {
	if t.Enriched {
		return []string{ColumnCategory, ColumnHeadline, ColumnLink, ColumnFullText}
	}
	return []string{ColumnCategory, ColumnHeadline, ColumnLink}
}

// Count returns the number of records with the given text status.
func (t *ResultTable) Count(status TextStatus) int {
	n := 0
	for _, r := range t.Records {
		if r.TextStatus == status {
			n++
		}
	}
	return n
}

// Len returns the number of records.
func (t *ResultTable) Len() int {
	return len(t.Records)
}

// WriteCSV writes the header row followed by one row per record. The
// header is written even when the table is empty.
func (t *ResultTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range t.Records {
		row := []string{r.Category, r.Headline, r.Link}
		if t.Enriched {
			row = append(row, r.FullText)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes a table written by WriteCSV. The variant is detected
// from the header.
func ReadCSV(r io.Reader) (*ResultTable, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var table *ResultTable
	switch {
	case slices.Equal(header, NewResultTable(true).Columns()):
		table = NewResultTable(true)
	case slices.Equal(header, NewResultTable(false).Columns()):
		table = NewResultTable(false)
	default:
		return nil, fmt.Errorf("unexpected columns %v", header)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	for _, row := range rows {
		rec := HeadlineRecord{
			Category:   row[0],
			Headline:   row[1],
			Link:       row[2],
			TextStatus: TextNotFetched,
		}
		if table.Enriched {
			rec.FullText = row[3]
			// The CSV only keeps the text; an empty cell is one of the
			// failure states
			if rec.FullText != "" {
				rec.TextStatus = TextExtracted
			} else {
				rec.TextStatus = TextNoContent
			}
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}
