package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/kerlann/pharmatools/pipeline"
)

// adverseEventSystemPrompt asks the model for a bare JSON array of adverse
// event terms found in a label text.
const adverseEventSystemPrompt = `You are an expert assistant trained to extract specific information from text. Given the following text, return a JSON array of all adverse events and side effects mentioned in the text. Provide only the JSON array as your output, without any additional explanations or text.

Example 1:
Input:
"The most commonly reported side effects include headache, nausea, and fatigue. Rare side effects include hair loss and blurred vision."

Output:
["Headache", "Nausea", "Fatigue", "Hair loss", "Blurred vision"]

Example 2:
Input:
"Patients have reported experiencing skin rash, dry mouth, and difficulty breathing after taking this medication. In rare cases, seizures have also been observed."

Output:
["Skin rash", "Dry mouth", "Difficulty breathing", "Seizures"]

Now, analyze the following text and return a JSON array of all adverse events and side effects.`

// AdverseEventExtractor extracts adverse-event terms from label text through
// a completion call. It implements pipeline.Extractor: one Record per term.
type AdverseEventExtractor struct {
	client Client
}

// NewAdverseEventExtractor creates an extractor backed by the given client.
func NewAdverseEventExtractor(client Client) *AdverseEventExtractor {
	return &AdverseEventExtractor{client: client}
}

// SchemaAdverseEvent is the record schema produced by the extractor.
const SchemaAdverseEvent = "adverse-event"

// Extract implements pipeline.Extractor. Model output that cannot be decoded
// as a JSON string array, even after repair, fails with pipeline.ErrParseError.
func (e *AdverseEventExtractor) Extract(ctx context.Context, doc pipeline.RawDocument) ([]pipeline.Record, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	reply, err := e.client.Complete(ctx, adverseEventSystemPrompt, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("adverse event extraction call failed: %w: %v", pipeline.ErrSourceUnavailable, err)
	}

	terms, err := decodeTermList(reply)
	if err != nil {
		return nil, fmt.Errorf("could not decode adverse event list: %w: %v", pipeline.ErrParseError, err)
	}

	records := make([]pipeline.Record, 0, len(terms))
	for i, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		records = append(records, pipeline.Record{
			ID:         fmt.Sprintf("%s-ae-%d", doc.ID, i),
			DocumentID: doc.ID,
			Schema:     SchemaAdverseEvent,
			Fields:     map[string]string{"term": term},
		})
	}
	return records, nil
}

// decodeTermList parses a model reply into a string list. Markdown fences are
// stripped first, then malformed JSON is repaired before a final decode
// attempt.
func decodeTermList(reply string) ([]string, error) {
	cleaned := stripCodeFences(reply)

	var terms []string
	if err := json.Unmarshal([]byte(cleaned), &terms); err == nil {
		return terms, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return nil, fmt.Errorf("reply is not a JSON array and repair failed: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &terms); err != nil {
		return nil, fmt.Errorf("repaired reply is still not a string array: %w", err)
	}
	return terms, nil
}

// stripCodeFences removes a surrounding markdown code fence from a model
// reply, with or without a language tag.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx != -1 {
		// Drop a language tag like "json" on the fence line
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "[{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// LabelDocument is a convenience constructor for a RawDocument that carries
// pasted or fetched label text.
func LabelDocument(queryID, market, text string) pipeline.RawDocument {
	return pipeline.RawDocument{
		ID:        fmt.Sprintf("%s-label-%s", queryID, market),
		QueryID:   queryID,
		Source:    pipeline.SourceLabel,
		Content:   text,
		FetchedAt: time.Now(),
	}
}
