// Package lasa implements look-alike/sound-alike comparison of drug names.
// A candidate name is scored against registry products with a combination of
// orthographic similarity (normalized Levenshtein, trigram Dice) and phonetic
// similarity (Soundex and consonant-skeleton keys). All scores are symmetric
// and bounded in [0,1].
package lasa

import (
	"context"
	"fmt"
	"sort"

	"github.com/kerlann/pharmatools/interfaces"
	"github.com/kerlann/pharmatools/pipeline"
)

// FlagThreshold is the combined score above which a pair of names is flagged
// as a potential look-alike/sound-alike confusion risk.
const FlagThreshold = 0.75

// Component weights for the combined score. They sum to 1 so the combined
// score inherits the [0,1] bound of its components.
const (
	weightLevenshtein = 0.4
	weightTrigram     = 0.2
	weightPhonetic    = 0.4
)

// Match is the comparison outcome for one candidate name.
type Match struct {
	Name         string  `json:"name"`
	Source       string  `json:"source,omitempty"`
	Orthographic float64 `json:"orthographic"`
	Phonetic     float64 `json:"phonetic"`
	Combined     float64 `json:"combined"`
	Flagged      bool    `json:"flagged"`
}

// Score compares two drug names and returns their Match. Score(a,b) and
// Score(b,a) produce the same Combined value.
func Score(ref, candidate string) Match {
	normRef := normalizeName(ref)
	normCand := normalizeName(candidate)

	lev := levenshteinSimilarity(normRef, normCand)
	dice := trigramDice(normRef, normCand)

	phonetic := 0.0
	if soundex(ref) == soundex(candidate) && soundex(ref) != "" {
		phonetic += 0.5
	}
	keyRef := phoneticKey(ref)
	keyCand := phoneticKey(candidate)
	phonetic += 0.5 * levenshteinSimilarity(keyRef, keyCand)

	ortho := lev
	if dice > ortho {
		ortho = dice
	}

	combined := weightLevenshtein*lev + weightTrigram*dice + weightPhonetic*phonetic

	return Match{
		Name:         candidate,
		Orthographic: ortho,
		Phonetic:     phonetic,
		Combined:     combined,
		Flagged:      combined >= FlagThreshold,
	}
}

// Search ranks all registry products against the reference name, most similar
// first. The reference itself is not excluded; an exact registry hit scores 1.
func Search(ctx context.Context, store interfaces.DataStore, ref string) ([]Match, error) {
	products := store.GetProducts()
	if len(products) == 0 {
		return nil, fmt.Errorf("no registry products loaded: %w", pipeline.ErrNotFound)
	}

	matches := make([]Match, 0, len(products))
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := Score(ref, p.Name)
		m.Source = p.Source
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Combined > matches[j].Combined
	})

	return matches, nil
}

// Flagged filters a ranked match list down to entries at or above the
// flag threshold.
func Flagged(matches []Match) []Match {
	out := make([]Match, 0)
	for _, m := range matches {
		if m.Flagged {
			out = append(out, m)
		}
	}
	return out
}

// Comparator adapts the lasa scoring to the pipeline.Comparator contract.
// It expects two record sets of schema "drug-name" each carrying at least one
// record with a "name" field, and compares the first names of each side.
type Comparator struct{}

// Schema is the record schema the lasa comparator accepts.
const Schema = "drug-name"

// Compare implements pipeline.Comparator.
func (Comparator) Compare(a, b pipeline.RecordSet) (pipeline.ComparisonResult, error) {
	if a.Schema != Schema || b.Schema != Schema {
		return pipeline.ComparisonResult{}, fmt.Errorf(
			"lasa comparator needs %q records, got %q and %q: %w",
			Schema, a.Schema, b.Schema, pipeline.ErrIncompatibleSchema)
	}
	nameA, okA := firstField(a, "name")
	nameB, okB := firstField(b, "name")
	if !okA || !okB {
		return pipeline.ComparisonResult{}, fmt.Errorf(
			"record sets are missing the name field: %w", pipeline.ErrIncompatibleSchema)
	}

	match := Score(nameA, nameB)
	details := map[string][]string{}
	if match.Flagged {
		details["flagged"] = []string{fmt.Sprintf("%s vs %s", nameA, nameB)}
	}

	return pipeline.ComparisonResult{Score: match.Combined, Details: details}, nil
}

func firstField(set pipeline.RecordSet, field string) (string, bool) {
	for _, r := range set.Records {
		if v, ok := r.Fields[field]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}
