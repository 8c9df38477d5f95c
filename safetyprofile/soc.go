// Package safetyprofile builds and compares drug safety profiles. Adverse
// event terms extracted from label texts are classified into MedDRA System
// Organ Classes (SOC); two profiles of the same taxonomy can then be diffed
// and scored.
package safetyprofile

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaxonomyMedDRASOC identifies the MedDRA System Organ Class taxonomy.
const TaxonomyMedDRASOC = "meddra-soc"

// generalSOC receives terms no lexicon keyword matches.
const generalSOC = "General disorders and administration site conditions"

//go:embed soc_lexicon.yaml
var socLexiconYAML []byte

// lexicon maps each SOC label to the lowercase keywords that route an
// adverse-event term into it.
type lexicon struct {
	Taxonomy string              `yaml:"taxonomy"`
	Classes  []socClass          `yaml:"classes"`
	index    map[string][]string // keyword -> SOC labels, built lazily
}

type socClass struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

var defaultLexicon *lexicon

func init() {
	lex, err := loadLexicon(socLexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded SOC lexicon is invalid: %v", err))
	}
	defaultLexicon = lex
}

func loadLexicon(raw []byte) (*lexicon, error) {
	var lex lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse SOC lexicon: %w", err)
	}
	if len(lex.Classes) == 0 {
		return nil, fmt.Errorf("SOC lexicon has no classes")
	}

	lex.index = make(map[string][]string)
	for _, class := range lex.Classes {
		for _, kw := range class.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			lex.index[kw] = append(lex.index[kw], class.Label)
		}
	}
	return &lex, nil
}

// SOCLabels returns all SOC labels of the default taxonomy, in lexicon order.
func SOCLabels() []string {
	labels := make([]string, 0, len(defaultLexicon.Classes))
	for _, class := range defaultLexicon.Classes {
		labels = append(labels, class.Label)
	}
	return labels
}

// ClassifyTerm maps an adverse-event term to a SOC label. Keyword matching is
// a substring check in both directions so "severe headache" still routes to
// the nervous-system class. Terms with no keyword hit land in the general
// disorders class.
func ClassifyTerm(term string) string {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return generalSOC
	}

	// Exact keyword hit first
	if labels, ok := defaultLexicon.index[t]; ok {
		return labels[0]
	}

	// Substring pass
	for kw, labels := range defaultLexicon.index {
		if strings.Contains(t, kw) {
			return labels[0]
		}
	}

	return generalSOC
}
