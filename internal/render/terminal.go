package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"ejiviz/internal/eji"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))
	axisStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noDataStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(eji.CellBorderColor))
	labelWidth   = 22
	defaultWidth = 40
)

// TerminalTable renders spec as a bordered table with colored headers and
// highlighted rows.
func TerminalTable(spec eji.RenderSpec) string {
	headers := make([]string, len(spec.Header))
	for i, h := range spec.Header {
		headers[i] = h.Label
	}
	rows := make([][]string, len(spec.Rows))
	for i, r := range spec.Rows {
		rows[i] = make([]string, len(r.Cells))
		for j, c := range r.Cells {
			rows[i][j] = c.Text
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)
			if row == table.HeaderRow {
				if col >= len(spec.Header) {
					return style
				}
				h := spec.Header[col]
				return style.Bold(true).
					Background(lipgloss.Color(Hex(h.Background))).
					Foreground(lipgloss.Color(Hex(h.Foreground)))
			}
			if row < 0 || row >= len(spec.Rows) {
				return style
			}
			r := spec.Rows[row]
			if r.Highlight {
				style = style.Background(lipgloss.Color(r.Background)).Foreground(lipgloss.Color("#000000"))
			}
			if col < len(r.Cells) && r.Cells[col].Missing {
				style = style.Italic(true)
			}
			return style
		})

	var b strings.Builder
	if spec.Title != "" {
		b.WriteString(titleStyle.Render(spec.Title))
		b.WriteString("\n")
	}
	b.WriteString(t.Render())
	return b.String()
}

type cell struct {
	r     rune
	color string
}

// TerminalChart draws spec as horizontal bars on a 0-1 scale of width
// columns. Overlay charts get one line per category; stacked charts get one
// line per stack group per category.
func TerminalChart(spec eji.ChartSpec, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(spec.Title))
	b.WriteString("\n\n")

	for i, category := range spec.Categories {
		if spec.BarMode == eji.BarStack {
			for j, group := range stackGroups(spec.Traces) {
				label := ""
				if j == 0 {
					label = category
				}
				b.WriteString(stackLine(label, group, i, width))
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(overlayLine(category, spec.Traces, i, width))
		b.WriteString("\n")
	}

	b.WriteString(axisLine(spec.YAxis, width))
	b.WriteString("\n")
	b.WriteString(legendLine(spec.Traces))
	return b.String()
}

func cellsFor(n int) []cell {
	cells := make([]cell, n)
	for i := range cells {
		cells[i] = cell{r: ' '}
	}
	return cells
}

func paint(cells []cell, from, to int, r rune, color string) {
	for k := from; k < to && k < len(cells); k++ {
		if k >= 0 {
			cells[k] = cell{r: r, color: color}
		}
	}
}

func span(h float64, width int) int {
	return int(math.Round(h * float64(width)))
}

func renderCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		if c.color == "" {
			b.WriteRune(c.r)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(Hex(c.color))).Render(string(c.r)))
	}
	return b.String()
}

func padLabel(label string) string {
	if len([]rune(label)) > labelWidth {
		label = string([]rune(label)[:labelWidth-1]) + "…"
	}
	return fmt.Sprintf("%-*s", labelWidth, label)
}

func overlayLine(category string, traces []eji.Trace, i, width int) string {
	cells := cellsFor(width)
	var texts []string
	for _, tr := range traces {
		if i >= len(tr.Bars) {
			continue
		}
		bar := tr.Bars[i]
		r := '█'
		color := bar.Color
		if tr.Pattern != nil {
			r = '╱'
			color = tr.Pattern.Foreground
		}
		paint(cells, 0, span(bar.Height, width), r, color)
		if bar.Text != "" && bar.Missing == (tr.Pattern != nil) {
			texts = append(texts, lastLine(bar.Text))
		}
	}
	return padLabel(category) + "│" + renderCells(cells) + "│ " + joinTexts(texts)
}

func stackGroups(traces []eji.Trace) [][]eji.Trace {
	var order []string
	groups := make(map[string][]eji.Trace)
	for _, tr := range traces {
		key := tr.Stack
		if key == "" {
			key = tr.Name
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tr)
	}
	out := make([][]eji.Trace, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

func stackLine(category string, group []eji.Trace, i, width int) string {
	cells := cellsFor(width)
	offset := 0.0
	var texts []string
	for k, tr := range group {
		if i >= len(tr.Bars) {
			continue
		}
		bar := tr.Bars[i]
		r := '█'
		if k > 0 {
			r = '▓'
		}
		from, to := span(offset, width), span(offset+bar.Height, width)
		paint(cells, from, to, r, bar.Color)
		offset += bar.Height
		if bar.Text != "" {
			texts = append(texts, bar.Text)
		}
		if k > 0 && bar.Height > 0 {
			texts = append(texts, fmt.Sprintf("%s %.3f", tr.Name, bar.Height))
		}
	}
	name := group[0].Name
	return padLabel(category) + fmt.Sprintf("%-5s", name) + "│" + renderCells(cells) + "│ " + joinTexts(texts)
}

func joinTexts(texts []string) string {
	out := make([]string, len(texts))
	for i, t := range texts {
		if t == eji.NoDataText {
			out[i] = noDataStyle.Render(t)
			continue
		}
		out[i] = t
	}
	return strings.Join(out, "  ")
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func axisLine(axis eji.Axis, width int) string {
	ruler := []rune(strings.Repeat("─", width))
	labels := []rune(strings.Repeat(" ", width+5))
	if axis.Tick <= 0 {
		axis.Tick = 0.25
	}
	for v := axis.Min; v <= axis.Max+1e-9; v += axis.Tick {
		pos := span((v-axis.Min)/(axis.Max-axis.Min), width)
		if pos < len(ruler) {
			ruler[pos] = '┼'
		}
		text := []rune(trimFloat(v))
		for k, r := range text {
			if pos+k < len(labels) {
				labels[pos+k] = r
			}
		}
	}
	pad := strings.Repeat(" ", labelWidth)
	return axisStyle.Render(pad + "└" + string(ruler) + "┘\n" + pad + " " + string(labels) + "  " + axis.Title)
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}

func legendLine(traces []eji.Trace) string {
	var parts []string
	for _, tr := range traces {
		if !tr.ShowLegend {
			continue
		}
		color, r := legendColor(tr), "■"
		if tr.Pattern != nil {
			r = "╱"
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(Hex(color))).Render(r)+" "+tr.Name)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Repeat(" ", labelWidth) + strings.Join(parts, "   ")
}

func legendColor(tr eji.Trace) string {
	switch tr.Name {
	case eji.WorsenedTraceName:
		return eji.WorsenedColor
	case eji.ImprovedTraceName:
		return eji.ImprovedColor
	}
	if tr.Pattern != nil {
		return tr.Pattern.Foreground
	}
	if len(tr.Bars) > 0 {
		return tr.Bars[0].Color
	}
	return eji.FallbackBarColor
}
