package eji

import (
	"sort"
	"strings"
)

// Key columns and the single state this dashboard reports on.
const (
	StateColumn  = "State"
	CountyColumn = "County"
	StateName    = "New Mexico"
)

// MatchMode controls how Select compares the key column.
type MatchMode int

const (
	// MatchExact trims whitespace and compares the rest byte for byte.
	MatchExact MatchMode = iota
	// MatchFold trims whitespace and ignores case.
	MatchFold
)

// GeoRow is the metric vector for one geography in one year.
type GeoRow struct {
	Geography string             `json:"geography"`
	Year      string             `json:"year"`
	Values    map[MetricID]Value `json:"values"`
}

// Value returns the row's value for m, missing when absent.
func (r GeoRow) Value(m MetricID) Value {
	return r.Values[m]
}

// Select finds the first row of t whose keyColumn matches key and extracts
// the requested metrics. ok is false when no row matches, which is a normal
// outcome and not an error.
func Select(t Table, keyColumn, key string, mode MatchMode, year string, metrics []MetricID) (GeoRow, bool) {
	k := t.ColumnIndex(keyColumn)
	if k < 0 {
		return GeoRow{}, false
	}
	for _, row := range t.Rows {
		if k >= len(row) || !matches(row[k], key, mode) {
			continue
		}
		out := GeoRow{
			Geography: key,
			Year:      year,
			Values:    make(map[MetricID]Value, len(metrics)),
		}
		for _, m := range metrics {
			j := t.ColumnIndex(m.Column())
			if j < 0 || j >= len(row) {
				out.Values[m] = Missing
				continue
			}
			out.Values[m] = Score(row[j])
		}
		return out, true
	}
	return GeoRow{}, false
}

// SelectState picks the New Mexico row from a state table.
func SelectState(t Table, year string, metrics []MetricID) (GeoRow, bool) {
	return Select(t, StateColumn, StateName, MatchFold, year, metrics)
}

// SelectCounty picks a county row from a county table.
func SelectCounty(t Table, county, year string, metrics []MetricID) (GeoRow, bool) {
	return Select(t, CountyColumn, county, MatchExact, year, metrics)
}

// Counties lists the distinct non-empty county names in t, sorted.
func Counties(t Table) []string {
	return Geographies(t, CountyColumn)
}

// Geographies lists the distinct non-empty values of column, sorted.
func Geographies(t Table, column string) []string {
	k := t.ColumnIndex(column)
	if k < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.Rows {
		if k >= len(row) {
			continue
		}
		s, ok := cellString(row[k])
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func matches(cell any, key string, mode MatchMode) bool {
	s, ok := cell.(string)
	if !ok {
		if b, isBytes := cell.([]byte); isBytes {
			s, ok = string(b), true
		}
	}
	if !ok {
		return false
	}
	s, key = strings.TrimSpace(s), strings.TrimSpace(key)
	if mode == MatchFold {
		return strings.EqualFold(s, key)
	}
	return s == key
}

func cellString(cell any) (string, bool) {
	var s string
	switch v := cell.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return "", false
	}
	return s, true
}
