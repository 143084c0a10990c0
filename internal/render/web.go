package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/go-echarts/go-echarts/v2/types"

	"ejiviz/internal/eji"
)

// EChartsAsset is the script the page must load before any EChart snippet.
const EChartsAsset = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"

func boolPtr(b bool) *bool { return &b }

var tableTemplate = template.Must(template.New("table").Parse(`<table class="eji-table" style="border-collapse: collapse; text-align: {{.Align}};">
{{- if .Title}}
<caption>{{.Title}}</caption>
{{- end}}
<thead><tr>
{{- range .Header}}
<th style="background-color: {{.Background}}; color: {{.Foreground}}; border: 1px solid {{$.BorderColor}}; padding: 4px;">{{.Label}}</th>
{{- end}}
</tr></thead>
<tbody>
{{- range .Rows}}
<tr{{if .Highlight}} class="highlight" style="background-color: {{.Background}};"{{end}}>
{{- range .Cells}}
<td style="border: 1px solid {{$.BorderColor}}; padding: 4px;"{{if .Missing}} class="no-data"{{end}}>{{.Text}}</td>
{{- end}}
</tr>
{{- end}}
</tbody>
</table>`))

// HTMLTable renders spec as a self-styled HTML table.
func HTMLTable(spec eji.RenderSpec) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}
	return template.HTML(buf.String()), nil
}

type snippetRenderer interface {
	RenderSnippet() render.ChartSnippet
}

func renderSnippet(c snippetRenderer) template.HTML {
	s := c.RenderSnippet()
	return template.HTML(s.Element + "\n" + s.Script)
}

// EChart renders spec as an ECharts bar chart. chartID must be unique within
// the page.
func EChart(spec eji.ChartSpec, chartID string) template.HTML {
	return renderSnippet(NewBarChart(spec, chartID))
}

// NewBarChart maps spec onto a go-echarts bar chart. Overlay charts draw all
// traces at the same slot; stacked charts stack traces sharing a Stack.
func NewBarChart(spec eji.ChartSpec, chartID string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "480px",
			ChartID: chartID,
		}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Bottom: "0"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XTitle}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:        spec.YAxis.Title,
			Min:         spec.YAxis.Min,
			Max:         spec.YAxis.Max,
			SplitNumber: splitNumber(spec.YAxis),
		}),
	)
	bar.SetXAxis(spec.Categories)

	placeholders := hasPlaceholders(spec)
	for _, tr := range spec.Traces {
		bar.AddSeries(tr.Name, barData(tr, placeholders), seriesOptions(spec, tr)...)
	}
	return bar
}

func splitNumber(axis eji.Axis) int {
	if axis.Tick <= 0 {
		return 4
	}
	return int((axis.Max - axis.Min) / axis.Tick)
}

func seriesOptions(spec eji.ChartSpec, tr eji.Trace) []charts.SeriesOpts {
	switch {
	case spec.BarMode == eji.BarStack && tr.Stack != "":
		return []charts.SeriesOpts{charts.WithBarChartOpts(opts.BarChart{Stack: tr.Stack})}
	case spec.BarMode == eji.BarOverlay:
		return []charts.SeriesOpts{charts.WithBarChartOpts(opts.BarChart{BarGap: "-100%"})}
	}
	return nil
}

// hasPlaceholders reports whether a patterned trace labels missing values,
// in which case zero-height bars elsewhere stay unlabeled.
func hasPlaceholders(spec eji.ChartSpec) bool {
	for _, tr := range spec.Traces {
		if tr.Pattern != nil {
			return true
		}
	}
	return false
}

func labelPosition(p string) string {
	if p == eji.TextOutside {
		return "top"
	}
	return "inside"
}

// braces start ECharts formatter templates.
var formatterEscaper = strings.NewReplacer("{", "(", "}", ")")

func barLabel(tr eji.Trace, b eji.Bar, placeholders bool) *opts.Label {
	show := b.Text != "" && (b.Height > 0 || (b.Missing && !placeholders))
	if !show {
		return &opts.Label{Show: boolPtr(false)}
	}
	position := labelPosition(tr.TextPosition)
	if b.Height == 0 {
		position = "top"
	}
	return &opts.Label{
		Show:      boolPtr(true),
		Color:     Hex(b.TextColor),
		Position:  position,
		Formatter: types.FuncStr(formatterEscaper.Replace(b.Text)),
	}
}

// hatchFill draws the pattern as a repeating canvas tile.
func hatchFill(p eji.Pattern) string {
	size := p.Size
	if size <= 0 {
		size = 6
	}
	js := fmt.Sprintf(`(function(){var c=document.createElement('canvas');c.width=%[1]d;c.height=%[1]d;`+
		`var x=c.getContext('2d');x.fillStyle='%[2]s';x.fillRect(0,0,%[1]d,%[1]d);`+
		`x.strokeStyle='%[3]s';x.beginPath();x.moveTo(0,%[1]d);x.lineTo(%[1]d,0);x.stroke();`+
		`return {image:c,repeat:'repeat'};})()`, size, Hex(p.Background), Hex(p.Foreground))
	return string(opts.FuncOpts(js))
}

func barData(tr eji.Trace, placeholders bool) []opts.BarData {
	data := make([]opts.BarData, len(tr.Bars))
	for i, b := range tr.Bars {
		style := &opts.ItemStyle{Color: Hex(b.Color)}
		if tr.Pattern != nil && b.Missing {
			style.Color = hatchFill(*tr.Pattern)
			style.BorderColor = Hex(tr.Pattern.Foreground)
			style.BorderWidth = 1
		}
		data[i] = opts.BarData{
			Name:      strings.Join(b.Hover, " "),
			Value:     b.Height,
			Label:     barLabel(tr, b, placeholders),
			ItemStyle: style,
		}
	}
	return data
}
