package eji

// Table rendering defaults.
const (
	NoDataText         = "No Data"
	HighlightThreshold = 0.76
	HighlightColor     = "#ffb3b3"
	CellBorderColor    = "#ccc"
	CellAlign          = "center"
)

// HeaderCell is one column header with its colors.
type HeaderCell struct {
	Label      string    `json:"label"`
	Metric     *MetricID `json:"metric,omitempty"`
	Background string    `json:"background"`
	Foreground string    `json:"foreground"`
}

// Cell is one rendered value.
type Cell struct {
	Text    string `json:"text"`
	Missing bool   `json:"missing,omitempty"`
}

// RenderRow is one rendered geography row. Cells line up with the header.
type RenderRow struct {
	Geography  string `json:"geography"`
	Year       string `json:"year,omitempty"`
	Cells      []Cell `json:"cells"`
	Highlight  bool   `json:"highlight"`
	Background string `json:"background,omitempty"`
}

// RenderSpec describes a colored table independent of any output medium.
type RenderSpec struct {
	Title       string       `json:"title,omitempty"`
	Header      []HeaderCell `json:"header"`
	Rows        []RenderRow  `json:"rows"`
	Threshold   float64      `json:"threshold"`
	Align       string       `json:"align"`
	BorderColor string       `json:"border_color"`
}

type tableOptions struct {
	title     string
	geoHeader string
	threshold float64
	secondary bool
	withYear  bool
}

// TableOption customises RenderTable.
type TableOption func(*tableOptions)

// WithTitle sets the table caption.
func WithTitle(title string) TableOption {
	return func(o *tableOptions) { o.title = title }
}

// WithThreshold overrides HighlightThreshold.
func WithThreshold(v float64) TableOption {
	return func(o *tableOptions) { o.threshold = v }
}

// WithGeographyHeader names the leading column, "County" by default.
func WithGeographyHeader(label string) TableOption {
	return func(o *tableOptions) { o.geoHeader = label }
}

// WithSecondaryColors colors headers with the comparison-year palette.
func WithSecondaryColors() TableOption {
	return func(o *tableOptions) { o.secondary = true }
}

// WithYearColumn adds a Year column after the geography.
func WithYearColumn() TableOption {
	return func(o *tableOptions) { o.withYear = true }
}

// RenderTable lays out rows as a colored table. Metric columns appear in
// catalog order whatever order metrics arrive in. A row is highlighted when
// any present value reaches the threshold.
func RenderTable(rows []GeoRow, metrics []MetricID, opts ...TableOption) RenderSpec {
	metrics = CanonicalOrder(metrics)
	o := tableOptions{geoHeader: CountyColumn, threshold: HighlightThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	spec := RenderSpec{
		Title:       o.title,
		Threshold:   o.threshold,
		Align:       CellAlign,
		BorderColor: CellBorderColor,
		Rows:        make([]RenderRow, 0, len(rows)),
	}
	spec.Header = append(spec.Header, plainHeader(o.geoHeader))
	if o.withYear {
		spec.Header = append(spec.Header, plainHeader("Year"))
	}
	for _, m := range metrics {
		m := m
		bg := m.PrimaryColor()
		if o.secondary {
			bg = m.SecondaryColor()
		}
		spec.Header = append(spec.Header, HeaderCell{
			Label:      m.Label(),
			Metric:     &m,
			Background: bg,
			Foreground: ContrastColor(bg),
		})
	}

	for _, r := range rows {
		rr := RenderRow{Geography: r.Geography, Year: r.Year}
		rr.Cells = append(rr.Cells, Cell{Text: r.Geography})
		if o.withYear {
			rr.Cells = append(rr.Cells, Cell{Text: r.Year})
		}
		for _, m := range metrics {
			v := r.Value(m)
			rr.Cells = append(rr.Cells, Cell{Text: v.Text(), Missing: !v.Valid})
			if v.Valid && v.Float64 >= o.threshold {
				rr.Highlight = true
			}
		}
		if rr.Highlight {
			rr.Background = HighlightColor
		}
		spec.Rows = append(spec.Rows, rr)
	}
	return spec
}

func plainHeader(label string) HeaderCell {
	return HeaderCell{
		Label:      label,
		Background: DefaultHeaderColor,
		Foreground: ContrastColor(DefaultHeaderColor),
	}
}
