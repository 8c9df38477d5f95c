package safetyprofile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderReport renders a diff as a markdown document: a per-SOC score table
// followed by the unique terms of each side. Columns are padded on display
// width so the raw text stays readable in a terminal.
func RenderReport(diff *Diff) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Safety profile comparison: %s vs %s\n\n", diff.Left.Label, diff.Right.Label)
	fmt.Fprintf(&b, "Similarity: %.3f\n\n", diff.Similarity)

	b.WriteString(renderScoreTable(diff))
	b.WriteString(renderUniqueTerms(fmt.Sprintf("Only in %s", diff.Left.Label), diff.UniqueLeft))
	b.WriteString(renderUniqueTerms(fmt.Sprintf("Only in %s", diff.Right.Label), diff.UniqueRight))

	return b.String()
}

func renderScoreTable(diff *Diff) string {
	socs := make(map[string]bool)
	for soc := range diff.Left.Buckets {
		socs[soc] = true
	}
	for soc := range diff.Right.Buckets {
		socs[soc] = true
	}
	if len(socs) == 0 {
		return "No adverse events found on either side.\n"
	}

	ordered := make([]string, 0, len(socs))
	for soc := range socs {
		ordered = append(ordered, soc)
	}
	sort.Strings(ordered)

	headers := []string{"System Organ Class", diff.Left.Label, diff.Right.Label}
	rows := make([][]string, 0, len(ordered))
	for _, soc := range ordered {
		rows = append(rows, []string{
			soc,
			fmt.Sprintf("%.2f", diff.Left.Scores[soc]),
			fmt.Sprintf("%.2f", diff.Right.Scores[soc]),
		})
	}

	return renderTable(headers, rows)
}

func renderUniqueTerms(title string, unique map[string][]string) string {
	if len(unique) == 0 {
		return ""
	}

	socs := make([]string, 0, len(unique))
	for soc := range unique {
		socs = append(socs, soc)
	}
	sort.Strings(socs)

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s\n\n", title)
	for _, soc := range socs {
		fmt.Fprintf(&b, "- %s: %s\n", soc, strings.Join(unique[soc], ", "))
	}
	return b.String()
}

// renderTable emits a markdown table with columns padded to their widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
