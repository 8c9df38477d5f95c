package lasa

import "strings"

// normalizeName uppercases a drug name and strips everything that is not a
// letter. Dosage suffixes ("ASPIRIN 100 mg") do not contribute to
// sound-alike risk, so digits are dropped entirely.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// soundex computes the American Soundex code of a name (letter + 3 digits).
func soundex(name string) string {
	s := normalizeName(name)
	if s == "" {
		return ""
	}

	codes := map[rune]byte{
		'B': '1', 'F': '1', 'P': '1', 'V': '1',
		'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
		'D': '3', 'T': '3',
		'L': '4',
		'M': '5', 'N': '5',
		'R': '6',
	}

	out := []byte{s[0]}
	prev := codes[rune(s[0])]

	for _, r := range s[1:] {
		code, ok := codes[r]
		if !ok {
			// Vowels and H/W/Y reset the adjacency rule differently:
			// H and W are transparent, vowels break runs.
			if r != 'H' && r != 'W' {
				prev = 0
			}
			continue
		}
		if code != prev {
			out = append(out, code)
			if len(out) == 4 {
				break
			}
		}
		prev = code
	}

	for len(out) < 4 {
		out = append(out, '0')
	}
	return string(out)
}

// phoneticKey computes a compact consonant-skeleton key: common digraphs are
// folded to their sound (PH->F, GH->G, CK->K, ...), vowels after the first
// letter are dropped, and runs of the same letter collapse. Names that sound
// alike tend to share keys ("ASPIRIN" and "ASPARIN" both give "ASPRN").
func phoneticKey(name string) string {
	s := normalizeName(name)
	if s == "" {
		return ""
	}

	replacements := []struct{ from, to string }{
		{"PH", "F"},
		{"GH", "G"},
		{"KN", "N"},
		{"WR", "R"},
		{"CK", "K"},
		{"SCH", "SK"},
		{"TH", "T"},
		{"QU", "K"},
		{"X", "KS"},
		{"Z", "S"},
		{"C", "K"},
		{"W", "V"},
		{"Y", "I"},
	}
	for _, rep := range replacements {
		s = strings.ReplaceAll(s, rep.from, rep.to)
	}

	isVowel := func(b byte) bool {
		return b == 'A' || b == 'E' || b == 'I' || b == 'O' || b == 'U'
	}

	out := []byte{s[0]}
	for i := 1; i < len(s); i++ {
		if isVowel(s[i]) {
			continue
		}
		if s[i] == out[len(out)-1] {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// levenshteinSimilarity normalizes edit distance into [0,1].
func levenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// trigramDice computes the Sørensen–Dice coefficient over character trigrams.
func trigramDice(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	seen := make(map[string]int, len(ta))
	for _, t := range ta {
		seen[t]++
	}

	common := 0
	for _, t := range tb {
		if seen[t] > 0 {
			seen[t]--
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

func trigrams(s string) []string {
	if len(s) < 3 {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	out := make([]string, 0, len(s)-2)
	for i := 0; i+3 <= len(s); i++ {
		out = append(out, s[i:i+3])
	}
	return out
}
