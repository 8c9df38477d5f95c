package safetyprofile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/pipeline"
)

// Diff is the outcome of comparing two safety profiles.
type Diff struct {
	Left  *Profile
	Right *Profile
	// Similarity is the mean per-SOC Jaccard overlap of the two term sets,
	// in [0,1]. 1 means identical buckets, 0 means no shared terms.
	Similarity float64
	// UniqueLeft and UniqueRight hold the terms present on only one side,
	// sorted per SOC.
	UniqueLeft  map[string][]string
	UniqueRight map[string][]string
}

// CompareProfiles diffs two profiles of the same taxonomy. Profiles built on
// different taxonomies cannot be compared and fail with
// pipeline.ErrIncompatibleSchema.
func CompareProfiles(left, right *Profile) (*Diff, error) {
	if left.Taxonomy != right.Taxonomy {
		return nil, fmt.Errorf("cannot compare taxonomy %q with %q: %w",
			left.Taxonomy, right.Taxonomy, pipeline.ErrIncompatibleSchema)
	}

	diff := &Diff{
		Left:        left,
		Right:       right,
		UniqueLeft:  make(map[string][]string),
		UniqueRight: make(map[string][]string),
	}

	socs := make(map[string]bool)
	for soc := range left.Buckets {
		socs[soc] = true
	}
	for soc := range right.Buckets {
		socs[soc] = true
	}
	if len(socs) == 0 {
		// Two empty profiles are trivially identical
		diff.Similarity = 1
		return diff, nil
	}

	var sum float64
	for soc := range socs {
		leftSet := termSet(left.Buckets[soc])
		rightSet := termSet(right.Buckets[soc])
		sum += jaccard(leftSet, rightSet)

		if unique := setDifference(left.Buckets[soc], rightSet); len(unique) > 0 {
			diff.UniqueLeft[soc] = unique
		}
		if unique := setDifference(right.Buckets[soc], leftSet); len(unique) > 0 {
			diff.UniqueRight[soc] = unique
		}
	}
	diff.Similarity = sum / float64(len(socs))

	return diff, nil
}

func termSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, term := range terms {
		set[strings.ToLower(term)] = true
	}
	return set
}

// jaccard computes |a∩b| / |a∪b|; two empty sets count as fully overlapping.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for term := range a {
		if b[term] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// setDifference returns the terms of list not present in other, sorted.
func setDifference(list []string, other map[string]bool) []string {
	var unique []string
	for _, term := range list {
		if !other[strings.ToLower(term)] {
			unique = append(unique, term)
		}
	}
	sort.Strings(unique)
	return unique
}

// Comparator implements pipeline.Comparator over adverse-event record sets.
// Each record set is built into a profile and the two profiles are diffed.
type Comparator struct{}

// Compare implements pipeline.Comparator. The result score is the profile
// similarity; details carry the unique terms of each side keyed by
// "<label> only: <SOC>".
func (Comparator) Compare(left, right pipeline.RecordSet) (pipeline.ComparisonResult, error) {
	leftProfile, err := BuildProfile(left.Label, left.Records)
	if err != nil {
		return pipeline.ComparisonResult{}, err
	}
	rightProfile, err := BuildProfile(right.Label, right.Records)
	if err != nil {
		return pipeline.ComparisonResult{}, err
	}

	diff, err := CompareProfiles(leftProfile, rightProfile)
	if err != nil {
		return pipeline.ComparisonResult{}, err
	}

	details := make(map[string][]string)
	for soc, terms := range diff.UniqueLeft {
		details[fmt.Sprintf("%s only: %s", left.Label, soc)] = terms
	}
	for soc, terms := range diff.UniqueRight {
		details[fmt.Sprintf("%s only: %s", right.Label, soc)] = terms
	}

	logging.Info("Safety profiles compared",
		"left", left.Label,
		"right", right.Label,
		"similarity", diff.Similarity)

	return pipeline.ComparisonResult{
		Score:   diff.Similarity,
		Details: details,
	}, nil
}
