// Package present derives the visible rows from the record collection.
package present

import (
	"strings"

	"github.com/idilsaglam/records/internal/model"
)

// Filter returns the records whose name or description contains the trimmed
// query, ignoring case. A blank query returns records unchanged.
func Filter(records []model.Record, query string) []model.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.Description), q) {
			out = append(out, r)
		}
	}
	return out
}

// Result is a filtered view plus the empty states a renderer may show.
type Result struct {
	Rows []model.Record
	// Empty is set when the collection itself has no records.
	Empty bool
	// NoMatches is set when records exist but none match the query.
	NoMatches bool
}

// View filters records and classifies the outcome.
func View(records []model.Record, query string) Result {
	rows := Filter(records, query)
	return Result{
		Rows:      rows,
		Empty:     len(records) == 0,
		NoMatches: len(records) > 0 && len(rows) == 0,
	}
}
