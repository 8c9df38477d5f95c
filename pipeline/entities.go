// Package pipeline defines the shared fetch-extract-compare core used by the
// pharmatools pipelines. A pipeline run is a single linear pass: a Query is
// fetched into RawDocuments, documents are extracted into Records, and record
// sets are compared into a ComparisonResult. Entities never outlive the run
// that created them.
package pipeline

import (
	"fmt"
	"time"
)

// SourceType classifies where a RawDocument came from.
type SourceType string

const (
	SourceWeb      SourceType = "web"
	SourceSearch   SourceType = "search"
	SourceRegistry SourceType = "registry"
	SourceLabel    SourceType = "label"
)

// Query is the immutable user input that starts a pipeline run.
type Query struct {
	ID     string `json:"id"`
	Term   string `json:"term"`
	Locale string `json:"locale,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// NewQuery builds a Query with a deterministic ID derived from term and locale.
func NewQuery(term, locale string) Query {
	return Query{
		ID:     fmt.Sprintf("q-%s-%s-%d", sanitizeID(term), locale, time.Now().UnixNano()),
		Term:   term,
		Locale: locale,
	}
}

// RawDocument is unstructured fetched content plus source metadata. It is
// owned by the Fetcher until handed to the Extractor and read-only afterward.
type RawDocument struct {
	ID        string     `json:"id"`
	QueryID   string     `json:"query_id"`
	URL       string     `json:"url,omitempty"`
	Source    SourceType `json:"source"`
	Content   string     `json:"content"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Record is the structured output of extraction. Its ID is traceable back to
// the source RawDocument through DocumentID; records are never mutated after
// extraction.
type Record struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Schema     string            `json:"schema"`
	Fields     map[string]string `json:"fields"`
}

// RecordSet groups records that share a schema, for comparison.
type RecordSet struct {
	Label   string   `json:"label"`
	Schema  string   `json:"schema"`
	Records []Record `json:"records"`
}

// ComparisonResult is the terminal entity of a run: a bounded similarity
// score plus an optional structured diff. It is never mutated after creation.
type ComparisonResult struct {
	Score   float64             `json:"score"`
	Details map[string][]string `json:"details,omitempty"`
}

func sanitizeID(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
