package safetyprofile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kerlann/pharmatools/pipeline"
)

// Profile is a drug's safety profile: adverse-event terms grouped per System
// Organ Class, with a normalized score per class.
type Profile struct {
	Label    string
	Taxonomy string
	// Buckets holds the deduplicated terms per SOC label. Only classes with
	// at least one term appear.
	Buckets map[string][]string
	// Scores holds one value in [0,1] per SOC, the bucket size divided by
	// the largest bucket of this profile.
	Scores map[string]float64
}

// BuildProfile groups adverse-event records into SOC buckets and scores each
// class. Records with a schema other than the adverse-event schema are
// rejected.
func BuildProfile(label string, records []pipeline.Record) (*Profile, error) {
	profile := &Profile{
		Label:    label,
		Taxonomy: TaxonomyMedDRASOC,
		Buckets:  make(map[string][]string),
		Scores:   make(map[string]float64),
	}

	seen := make(map[string]bool)
	for _, record := range records {
		if record.Schema != "adverse-event" {
			return nil, fmt.Errorf("record %s has schema %q, expected adverse-event: %w",
				record.ID, record.Schema, pipeline.ErrIncompatibleSchema)
		}
		term := strings.TrimSpace(record.Fields["term"])
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true

		soc := ClassifyTerm(term)
		profile.Buckets[soc] = append(profile.Buckets[soc], term)
	}

	maxSize := 0
	for _, terms := range profile.Buckets {
		if len(terms) > maxSize {
			maxSize = len(terms)
		}
	}
	if maxSize > 0 {
		for soc, terms := range profile.Buckets {
			sort.Strings(profile.Buckets[soc])
			profile.Scores[soc] = float64(len(terms)) / float64(maxSize)
		}
	}

	return profile, nil
}

// TermCount returns the total number of distinct terms across all buckets.
func (p *Profile) TermCount() int {
	total := 0
	for _, terms := range p.Buckets {
		total += len(terms)
	}
	return total
}

// Terms returns all distinct terms of the profile, lowercase, as a set.
func (p *Profile) Terms() map[string]bool {
	set := make(map[string]bool)
	for _, terms := range p.Buckets {
		for _, term := range terms {
			set[strings.ToLower(term)] = true
		}
	}
	return set
}
