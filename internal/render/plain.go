package render

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"ejiviz/internal/eji"
)

// PlainTable renders spec as tab-separated text without color, one line per
// row after the header. It is the form copied to the clipboard so it pastes
// into spreadsheet cells.
func PlainTable(spec eji.RenderSpec) string {
	var b strings.Builder
	if spec.Title != "" {
		b.WriteString(spec.Title)
		b.WriteString("\n")
	}
	for _, cells := range plainCells(spec) {
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// plainCells is the header followed by each row's cell texts. Tabs and
// newlines inside a cell become spaces so every row stays on one line.
func plainCells(spec eji.RenderSpec) [][]string {
	out := make([][]string, 0, len(spec.Rows)+1)
	labels := make([]string, len(spec.Header))
	for i, h := range spec.Header {
		labels[i] = cellText(h.Label)
	}
	out = append(out, labels)
	for _, r := range spec.Rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = cellText(c.Text)
		}
		out = append(out, cells)
	}
	return out
}

var cellReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ")

func cellText(s string) string { return cellReplacer.Replace(s) }

// PlainDiscrepancies lists per-metric changes, one line each.
func PlainDiscrepancies(ds []eji.Discrepancy) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, d := range ds {
		w.Write([]byte(d.Metric.Label() + "\t" + d.Baseline.Text() + "\t→\t" + d.Other.Text() + "\t" + deltaText(d) + "\n"))
	}
	w.Flush()
	return b.String()
}

func deltaText(d eji.Discrepancy) string {
	if d.Direction == eji.Incomparable {
		return eji.NoDataText
	}
	return fmt.Sprintf("Δ %+.3f", d.Signed())
}
