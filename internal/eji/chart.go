package eji

import "fmt"

// Chart layout constants shared by every chart.
const (
	NoDataHeight     = 0.5
	NoDataTraceName  = "No Data"
	NoDataLabelColor = TextBlack
	NoDataFill       = "white"

	WorsenedTraceName = "Discrepancy (↑)"
	ImprovedTraceName = "Discrepancy (↓)"

	YAxisTitle           = "Percentile Rank Value"
	SingleXAxisTitle     = "Environmental Justice Index Metric"
	ComparisonXAxisTitle = "EJI Metric"

	TextInside  = "inside"
	TextOutside = "outside"
)

// ChartKind tells renderers how traces combine.
type ChartKind string

const (
	KindSingle     ChartKind = "single"
	KindComparison ChartKind = "comparison"
)

// BarMode is how bars at the same category are combined.
type BarMode string

const (
	BarOverlay BarMode = "overlay"
	BarStack   BarMode = "stack"
)

// Pattern is a hatched fill for placeholder bars.
type Pattern struct {
	Shape      string `json:"shape"`
	Foreground string `json:"fg_color"`
	Background string `json:"bg_color"`
	Size       int    `json:"size"`
}

// NoDataPattern marks bars that stand in for missing values.
var NoDataPattern = Pattern{Shape: "/", Foreground: "black", Background: "white", Size: 6}

// Bar is one bar of a trace. Text lines are separated by "\n".
type Bar struct {
	Height    float64  `json:"height"`
	Color     string   `json:"color"`
	Text      string   `json:"text,omitempty"`
	TextColor string   `json:"text_color,omitempty"`
	Hover     []string `json:"hover,omitempty"`
	Missing   bool     `json:"missing,omitempty"`
}

// Trace is a named series with one bar per category. Traces sharing a
// non-empty Stack are drawn on top of each other in trace order.
type Trace struct {
	Name         string   `json:"name"`
	Stack        string   `json:"stack,omitempty"`
	ShowLegend   bool     `json:"show_legend"`
	TextPosition string   `json:"text_position,omitempty"`
	Pattern      *Pattern `json:"pattern,omitempty"`
	Bars         []Bar    `json:"bars"`
}

// Axis is a value axis with a fixed range.
type Axis struct {
	Title string  `json:"title"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Tick  float64 `json:"tick"`
}

// PercentileAxis is the y axis for every EJI chart.
var PercentileAxis = Axis{Title: YAxisTitle, Min: 0, Max: 1, Tick: 0.25}

// Legend places the legend relative to the plot area.
type Legend struct {
	Orientation string  `json:"orientation"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	XAnchor     string  `json:"x_anchor"`
}

// BottomLegend is a horizontal legend centered below the plot.
var BottomLegend = Legend{Orientation: "h", X: 0.5, Y: -0.2, XAnchor: "center"}

// ChartSpec is a renderer-neutral bar chart description.
type ChartSpec struct {
	Kind       ChartKind  `json:"kind"`
	Title      string     `json:"title"`
	XTitle     string     `json:"x_title"`
	Categories []string   `json:"categories"`
	Metrics    []MetricID `json:"metrics"`
	Traces     []Trace    `json:"traces"`
	YAxis      Axis       `json:"y_axis"`
	Legend     Legend     `json:"legend"`
	BarMode    BarMode    `json:"bar_mode"`
}

// SingleTitle is the chart title for one geography in one year.
func SingleTitle(area, year string) string {
	return fmt.Sprintf("EJI Metrics — %s (%s)", area, year)
}

// ComparisonTitle is the chart title for a two-year comparison.
func ComparisonTitle(label1, label2 string) string {
	return fmt.Sprintf("EJI Metrics Comparison: %s vs %s", label1, label2)
}

func categories(metrics []MetricID) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.Label()
	}
	return out
}

func hover(area string, v Value) []string {
	return []string{area, v.Text()}
}

func labelText(area string, v Value) string {
	if !v.Valid {
		return NoDataText
	}
	if area == "" {
		return v.Text()
	}
	return area + "\n" + v.Text()
}

// SingleChart builds the bar chart for one geography. Missing metrics get a
// zero-height value bar plus a hatched placeholder of NoDataHeight so they do
// not read as a real score of zero. Categories follow catalog order.
func SingleChart(row GeoRow, metrics []MetricID, title string) ChartSpec {
	metrics = CanonicalOrder(metrics)
	if title == "" {
		title = SingleTitle(row.Geography, row.Year)
	}
	values := Trace{Name: row.Geography, TextPosition: TextInside}
	noData := Trace{
		Name:         NoDataTraceName,
		ShowLegend:   true,
		TextPosition: TextOutside,
		Pattern:      &NoDataPattern,
	}
	for _, m := range metrics {
		v := row.Value(m)
		color := m.PrimaryColor()
		textColor := ContrastColor(color)
		if !v.Valid {
			textColor = NoDataLabelColor
		}
		values.Bars = append(values.Bars, Bar{
			Height:    v.Height(),
			Color:     color,
			Text:      labelText(row.Geography, v),
			TextColor: textColor,
			Hover:     hover(row.Geography, v),
			Missing:   !v.Valid,
		})

		placeholder := Bar{Color: NoDataFill, Hover: hover(row.Geography, v), TextColor: NoDataLabelColor}
		if !v.Valid {
			placeholder.Height = NoDataHeight
			placeholder.Missing = true
			placeholder.Text = row.Geography + "\n" + NoDataText
		}
		noData.Bars = append(noData.Bars, placeholder)
	}
	return ChartSpec{
		Kind:       KindSingle,
		Title:      title,
		XTitle:     SingleXAxisTitle,
		Categories: categories(metrics),
		Metrics:    append([]MetricID(nil), metrics...),
		Traces:     []Trace{values, noData},
		YAxis:      PercentileAxis,
		Legend:     BottomLegend,
		BarMode:    BarOverlay,
	}
}

// Stack groups used by ComparisonChart.
const (
	BaselineStack = "baseline"
	OtherStack    = "other"
)

// ComparisonChart builds the stacked two-year chart. Traces are, in order,
// the baseline year, the worsened increments stacked on the baseline bars,
// the other year, and the improved increments stacked on the other bars, so
// every increment reaches from the smaller value up to the larger one.
func ComparisonChart(baseline, other GeoRow, metrics []MetricID) ChartSpec {
	metrics = CanonicalOrder(metrics)
	label1, label2 := baseline.Year, other.Year
	t1 := Trace{Name: label1, Stack: BaselineStack, ShowLegend: true, TextPosition: TextInside}
	up := Trace{Name: WorsenedTraceName, Stack: BaselineStack, ShowLegend: true}
	t2 := Trace{Name: label2, Stack: OtherStack, ShowLegend: true, TextPosition: TextInside}
	down := Trace{Name: ImprovedTraceName, Stack: OtherStack, ShowLegend: true}

	for _, d := range CompareRows(baseline, other, metrics) {
		m := d.Metric
		t1.Bars = append(t1.Bars, yearBar(m.PrimaryColor(), label1, d.Baseline))
		t2.Bars = append(t2.Bars, yearBar(m.SecondaryColor(), label2, d.Other))
		signed := fmt.Sprintf("Δ %+.3f", d.Signed())
		up.Bars = append(up.Bars, Bar{
			Height: d.WorsenedIncrement(),
			Color:  d.Color(),
			Hover:  []string{label1 + " → " + label2, signed},
		})
		down.Bars = append(down.Bars, Bar{
			Height: d.ImprovedIncrement(),
			Color:  d.Color(),
			Hover:  []string{label1 + " → " + label2, signed},
		})
	}
	return ChartSpec{
		Kind:       KindComparison,
		Title:      ComparisonTitle(label1, label2),
		XTitle:     ComparisonXAxisTitle,
		Categories: categories(metrics),
		Metrics:    append([]MetricID(nil), metrics...),
		Traces:     []Trace{t1, up, t2, down},
		YAxis:      PercentileAxis,
		Legend:     BottomLegend,
		BarMode:    BarStack,
	}
}

func yearBar(color, label string, v Value) Bar {
	textColor := ContrastColor(color)
	if !v.Valid {
		textColor = NoDataLabelColor
	}
	return Bar{
		Height:    v.Height(),
		Color:     color,
		Text:      v.Text(),
		TextColor: textColor,
		Hover:     hover(label, v),
		Missing:   !v.Valid,
	}
}
