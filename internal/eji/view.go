package eji

import "fmt"

// Geography selects between the statewide row and a single county.
type Geography string

const (
	GeoState  Geography = "state"
	GeoCounty Geography = "county"
)

// ParseGeography accepts "state", "county" or the display names used in the UI.
func ParseGeography(s string) (Geography, error) {
	switch s {
	case "", "state", "State", StateName:
		return GeoState, nil
	case "county", "County":
		return GeoCounty, nil
	}
	return "", fmt.Errorf("unknown geography %q", s)
}

// YearData is one year's normalized state and county tables.
type YearData struct {
	Year   string
	State  Table
	County Table
}

// Metrics is the reconciled metric set for the year.
func (y YearData) Metrics() []MetricID {
	return ReconcileMetrics(y.State, y.County)
}

// Counties lists the county names available for the year.
func (y YearData) Counties() []string {
	return Counties(y.County)
}

// Row selects the state row or a county row.
func (y YearData) Row(geo Geography, county string, metrics []MetricID) (GeoRow, bool) {
	if geo == GeoCounty {
		return SelectCounty(y.County, county, y.Year, metrics)
	}
	return SelectState(y.State, y.Year, metrics)
}

// NoCountyNotice is shown when a county has no row for the year.
func NoCountyNotice(county string) string { return fmt.Sprintf("No data found for %s.", county) }

// NoStateNotice is shown when the state table lacks a New Mexico row.
const NoStateNotice = "No New Mexico data found."

// NoComparisonNotice is shown when either year lacks the county.
func NoComparisonNotice(county string) string {
	return fmt.Sprintf("No data for %s in one of the years", county)
}

const NoStateComparisonNotice = "No New Mexico data found"

// Info and caption text shown alongside the views.
const (
	SingleInfo = "Lower EJI values (closer to 0) mean lower cumulative burden. " +
		"Rows highlighted in red have at least one metric at or above 0.76, which the CDC treats as Very High Concern."
	ComparisonInfo = "Negative change (Δ < 0) indicates improvement (reduced burden). " +
		"Positive change (Δ > 0) indicates worse outcome (increased burden)."
	Caption = "Data Source: CDC Environmental Justice Index | Visualization by Riley Cochrell"
)

// YearView is everything needed to show one geography in one year.
type YearView struct {
	Year      string      `json:"year"`
	Geography Geography   `json:"geography"`
	Area      string      `json:"area"`
	Metrics   []MetricID  `json:"metrics"`
	Found     bool        `json:"found"`
	Notice    string      `json:"notice,omitempty"`
	Row       *GeoRow     `json:"row,omitempty"`
	Table     *RenderSpec `json:"table,omitempty"`
	Chart     *ChartSpec  `json:"chart,omitempty"`
}

func areaName(geo Geography, county string) string {
	if geo == GeoCounty {
		return county
	}
	return StateName
}

// BuildYearView selects and renders one geography for one year.
func BuildYearView(y YearData, geo Geography, county string, opts ...TableOption) YearView {
	metrics := y.Metrics()
	area := areaName(geo, county)
	v := YearView{Year: y.Year, Geography: geo, Area: area, Metrics: metrics}

	row, ok := y.Row(geo, county, metrics)
	if !ok {
		if geo == GeoCounty {
			v.Notice = NoCountyNotice(county)
		} else {
			v.Notice = NoStateNotice
		}
		return v
	}
	row.Geography = area
	table := RenderTable([]GeoRow{row}, metrics,
		append([]TableOption{
			WithGeographyHeader(geoHeader(geo)),
			WithTitle(fmt.Sprintf("EJI Data for %s — %s", area, y.Year)),
		}, opts...)...)
	chart := SingleChart(row, metrics, SingleTitle(area, y.Year))

	v.Found = true
	v.Row = &row
	v.Table = &table
	v.Chart = &chart
	return v
}

// ComparisonView holds a two-year comparison for one geography.
type ComparisonView struct {
	Baseline      string        `json:"baseline"`
	Other         string        `json:"other"`
	Geography     Geography     `json:"geography"`
	Area          string        `json:"area"`
	Metrics       []MetricID    `json:"metrics"`
	Dropped       []MetricID    `json:"dropped,omitempty"`
	Found         bool          `json:"found"`
	Notice        string        `json:"notice,omitempty"`
	BaselineRow   *GeoRow       `json:"baseline_row,omitempty"`
	OtherRow      *GeoRow       `json:"other_row,omitempty"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
	Table         *RenderSpec   `json:"table,omitempty"`
	Chart         *ChartSpec    `json:"chart,omitempty"`
}

// DroppedNote describes metrics left out because one year lacks them.
func (c ComparisonView) DroppedNote() string {
	if len(c.Dropped) == 0 {
		return ""
	}
	labels := categories(c.Dropped)
	s := labels[0]
	for _, l := range labels[1:] {
		s += ", " + l
	}
	return fmt.Sprintf("%s not available in both %s and %s; omitted from the comparison.", s, c.Baseline, c.Other)
}

// BuildComparisonView compares one geography across two years. Optional
// metrics missing from either year are dropped and listed in Dropped.
func BuildComparisonView(base, other YearData, geo Geography, county string, opts ...TableOption) ComparisonView {
	bt := []Table{base.State, base.County}
	ot := []Table{other.State, other.County}
	metrics := ReconcileYears(bt, ot)
	area := areaName(geo, county)
	v := ComparisonView{
		Baseline:  base.Year,
		Other:     other.Year,
		Geography: geo,
		Area:      area,
		Metrics:   metrics,
		Dropped:   DroppedMetrics(bt, ot),
	}

	r1, ok1 := base.Row(geo, county, metrics)
	r2, ok2 := other.Row(geo, county, metrics)
	if !ok1 || !ok2 {
		if geo == GeoCounty {
			v.Notice = NoComparisonNotice(county)
		} else {
			v.Notice = NoStateComparisonNotice
		}
		return v
	}
	r1.Geography, r2.Geography = area, area

	table := RenderTable([]GeoRow{r1, r2}, metrics,
		append([]TableOption{
			WithGeographyHeader(geoHeader(geo)),
			WithYearColumn(),
			WithTitle(fmt.Sprintf("%s — %s vs %s", area, base.Year, other.Year)),
		}, opts...)...)
	chart := ComparisonChart(r1, r2, metrics)

	v.Found = true
	v.BaselineRow = &r1
	v.OtherRow = &r2
	v.Discrepancies = CompareRows(r1, r2, metrics)
	v.Table = &table
	v.Chart = &chart
	return v
}

func geoHeader(geo Geography) string {
	if geo == GeoCounty {
		return CountyColumn
	}
	return StateColumn
}

// OtherYears returns the years that may be compared against baseline.
func OtherYears(years []string, baseline string) []string {
	var out []string
	for _, y := range years {
		if y != baseline {
			out = append(out, y)
		}
	}
	return out
}
