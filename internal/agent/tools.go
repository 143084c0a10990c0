package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/fantasy"

	"ejiviz/internal/data"
	"ejiviz/internal/eji"
)

// Tool names.
const (
	ToolListYears    = "list_years"
	ToolListCounties = "list_counties"
	ToolGetScores    = "get_scores"
	ToolCompareYears = "compare_years"
	ToolRunSQL       = "run_sql"
)

// SQLRunner executes read-only queries against the ingested tables.
type SQLRunner interface {
	ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error)
}

// ErrNotReadOnly rejects SQL that is not a single SELECT-style statement.
var ErrNotReadOnly = errors.New("only single SELECT, WITH, DESCRIBE or SUMMARIZE statements are allowed")

// Toolset answers the data questions the agent can ask.
type Toolset struct {
	loader data.Loader
	years  []string
	store  SQLRunner
}

// NewToolset reads years through loader. store may be nil.
func NewToolset(loader data.Loader, years []string, store SQLRunner) *Toolset {
	if len(years) == 0 {
		years = data.SupportedYears
	}
	return &Toolset{loader: loader, years: years, store: store}
}

// YearInput selects a release year.
type YearInput struct {
	Year string `json:"year" description:"EJI release year, for example 2022 or 2024"`
}

// ScoresInput selects a geography in one year.
type ScoresInput struct {
	Year   string `json:"year" description:"EJI release year, for example 2022 or 2024"`
	County string `json:"county,omitempty" description:"New Mexico county name; omit for statewide values"`
}

// CompareInput selects a geography in two years.
type CompareInput struct {
	Baseline string `json:"baseline" description:"Earlier year to compare from"`
	Other    string `json:"other" description:"Year to compare against the baseline"`
	County   string `json:"county,omitempty" description:"New Mexico county name; omit for statewide values"`
}

// SQLInput is a query over the ingested DuckDB tables.
type SQLInput struct {
	Query string `json:"query" description:"A single read-only DuckDB SQL statement over tables such as state_2024 and county_2024"`
}

// Score is one metric value; Value is nil when the source has no data.
type Score struct {
	Metric string   `json:"metric"`
	Column string   `json:"column"`
	Value  *float64 `json:"value"`
}

// ScoresResult is the get_scores answer.
type ScoresResult struct {
	Year        string   `json:"year"`
	Area        string   `json:"area"`
	Found       bool     `json:"found"`
	Notice      string   `json:"notice,omitempty"`
	VeryHigh    bool     `json:"very_high_concern"`
	Scores      []Score  `json:"scores,omitempty"`
	Unavailable []string `json:"unavailable_metrics,omitempty"`
}

// Change is one metric's movement between two years.
type Change struct {
	Metric    string   `json:"metric"`
	Baseline  *float64 `json:"baseline"`
	Other     *float64 `json:"other"`
	Delta     *float64 `json:"delta"`
	Direction string   `json:"direction"`
}

// CompareResult is the compare_years answer.
type CompareResult struct {
	Baseline string   `json:"baseline"`
	Other    string   `json:"other"`
	Area     string   `json:"area"`
	Found    bool     `json:"found"`
	Notice   string   `json:"notice,omitempty"`
	Dropped  []string `json:"dropped_metrics,omitempty"`
	Changes  []Change `json:"changes,omitempty"`
}

func valuePtr(v eji.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func geography(county string) (eji.Geography, string) {
	county = strings.TrimSpace(county)
	if county == "" || strings.EqualFold(county, eji.StateName) {
		return eji.GeoState, ""
	}
	return eji.GeoCounty, county
}

// Years lists the supported years.
func (ts *Toolset) Years() []string {
	return ts.years
}

// Counties lists the counties with data in year.
func (ts *Toolset) Counties(ctx context.Context, in YearInput) ([]string, error) {
	yd, err := ts.loader.Year(ctx, in.Year)
	if err != nil {
		return nil, err
	}
	return yd.Counties(), nil
}

// Scores looks up every metric for one geography in one year. County names
// match case-insensitively.
func (ts *Toolset) Scores(ctx context.Context, in ScoresInput) (ScoresResult, error) {
	yd, err := ts.loader.Year(ctx, in.Year)
	if err != nil {
		return ScoresResult{}, err
	}
	geo, county := geography(in.County)
	county = canonicalCounty(yd.Counties(), county)
	view := eji.BuildYearView(yd, geo, county)

	res := ScoresResult{Year: in.Year, Area: view.Area, Found: view.Found, Notice: view.Notice}
	for _, m := range eji.AllMetrics() {
		if !slices.Contains(view.Metrics, m) {
			res.Unavailable = append(res.Unavailable, m.Label())
		}
	}
	if !view.Found {
		return res, nil
	}
	for _, m := range view.Metrics {
		v := view.Row.Value(m)
		res.Scores = append(res.Scores, Score{Metric: m.Label(), Column: m.Column(), Value: valuePtr(v)})
	}
	res.VeryHigh = len(view.Table.Rows) > 0 && view.Table.Rows[0].Highlight
	return res, nil
}

// Compare describes how one geography changed between two years.
func (ts *Toolset) Compare(ctx context.Context, in CompareInput) (CompareResult, error) {
	if in.Baseline == in.Other {
		return CompareResult{}, fmt.Errorf("baseline and other must be different years")
	}
	base, err := ts.loader.Year(ctx, in.Baseline)
	if err != nil {
		return CompareResult{}, err
	}
	other, err := ts.loader.Year(ctx, in.Other)
	if err != nil {
		return CompareResult{}, err
	}
	geo, county := geography(in.County)
	county = canonicalCounty(base.Counties(), county)
	view := eji.BuildComparisonView(base, other, geo, county)

	res := CompareResult{
		Baseline: in.Baseline,
		Other:    in.Other,
		Area:     view.Area,
		Found:    view.Found,
		Notice:   view.Notice,
	}
	for _, m := range view.Dropped {
		res.Dropped = append(res.Dropped, m.Label())
	}
	for _, d := range view.Discrepancies {
		c := Change{
			Metric:    d.Metric.Label(),
			Baseline:  valuePtr(d.Baseline),
			Other:     valuePtr(d.Other),
			Direction: d.Direction.String(),
		}
		if d.Direction != eji.Incomparable {
			delta := d.Signed()
			c.Delta = &delta
		}
		res.Changes = append(res.Changes, c)
	}
	return res, nil
}

// SQL runs a read-only statement against the store.
func (ts *Toolset) SQL(ctx context.Context, in SQLInput) ([]map[string]any, error) {
	if ts.store == nil {
		return nil, fmt.Errorf("SQL access is not enabled")
	}
	if err := readOnly(in.Query); err != nil {
		return nil, err
	}
	return ts.store.ExecuteQuery(ctx, in.Query)
}

func readOnly(query string) error {
	q := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if q == "" || strings.Contains(q, ";") {
		return ErrNotReadOnly
	}
	first := strings.ToUpper(strings.Fields(q)[0])
	switch first {
	case "SELECT", "WITH", "DESCRIBE", "SUMMARIZE", "FROM":
		return nil
	}
	return ErrNotReadOnly
}

// canonicalCounty maps a case-insensitive county name onto the spelling
// used in the data so exact selection finds it.
func canonicalCounty(counties []string, county string) string {
	for _, c := range counties {
		if strings.EqualFold(c, county) {
			return c
		}
	}
	return county
}

func jsonResponse(v any, err error) (fantasy.ToolResponse, error) {
	if err != nil {
		return fantasy.NewTextErrorResponse(err.Error()), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fantasy.NewTextErrorResponse(fmt.Sprintf("failed to encode result as JSON: %v", err)), nil
	}
	return fantasy.NewTextResponse(string(b)), nil
}

// ToolNames lists the tools CreateTools can build, in order.
func ToolNames(ts *Toolset) []string {
	names := []string{ToolListYears, ToolListCounties, ToolGetScores, ToolCompareYears}
	if ts.store != nil {
		names = append(names, ToolRunSQL)
	}
	return names
}

func excluded(name string, exclusions []string) bool {
	for _, excl := range exclusions {
		if name == excl || strings.HasPrefix(name, excl) {
			return true
		}
	}
	return false
}

// CreateTools builds the Fantasy tools for ts, except those named in
// exclusions (prefix match).
func CreateTools(ts *Toolset, exclusions []string) []fantasy.AgentTool {
	var tools []fantasy.AgentTool
	for _, name := range ToolNames(ts) {
		if excluded(name, exclusions) {
			continue
		}
		tools = append(tools, createTool(ts, name))
	}
	return tools
}

func createTool(ts *Toolset, name string) fantasy.AgentTool {
	switch name {
	case ToolListYears:
		return fantasy.NewAgentTool(name,
			"List the EJI release years available in the dashboard",
			func(ctx context.Context, _ struct{}, _ fantasy.ToolCall) (fantasy.ToolResponse, error) {
				return jsonResponse(ts.Years(), nil)
			})
	case ToolListCounties:
		return fantasy.NewAgentTool(name,
			"List the New Mexico counties that have EJI data for a year",
			func(ctx context.Context, in YearInput, _ fantasy.ToolCall) (fantasy.ToolResponse, error) {
				return jsonResponse(ts.Counties(ctx, in))
			})
	case ToolGetScores:
		return fantasy.NewAgentTool(name,
			"Get every EJI percentile rank for New Mexico or one county in one year",
			func(ctx context.Context, in ScoresInput, _ fantasy.ToolCall) (fantasy.ToolResponse, error) {
				return jsonResponse(ts.Scores(ctx, in))
			})
	case ToolCompareYears:
		return fantasy.NewAgentTool(name,
			"Compare EJI percentile ranks for New Mexico or one county between two years",
			func(ctx context.Context, in CompareInput, _ fantasy.ToolCall) (fantasy.ToolResponse, error) {
				return jsonResponse(ts.Compare(ctx, in))
			})
	default:
		return fantasy.NewAgentTool(ToolRunSQL,
			"Run one read-only DuckDB SQL statement over the ingested EJI tables",
			func(ctx context.Context, in SQLInput, _ fantasy.ToolCall) (fantasy.ToolResponse, error) {
				return jsonResponse(ts.SQL(ctx, in))
			})
	}
}
