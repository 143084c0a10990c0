// Package eji holds the EJI metric catalog and the pure functions that turn
// raw state and county tables into table and chart specifications.
package eji

import "fmt"

// MetricID identifies one EJI percentile-rank metric.
type MetricID int

const (
	OverallEJI MetricID = iota
	EnvironmentalBurden
	SocialVulnerability
	HealthVulnerability
	ClimateBurden
	EJIPlusClimateBurden

	metricCount
)

// CatalogEntry describes one metric. Entries are read-only.
type CatalogEntry struct {
	ID           MetricID `json:"id"`
	Column       string   `json:"column"`
	LegacyColumn string   `json:"legacy_column"`
	Label        string   `json:"label"`
	Primary      string   `json:"primary_color"`
	Secondary    string   `json:"secondary_color"`
	Optional     bool     `json:"optional"`
}

var catalog = [metricCount]CatalogEntry{
	OverallEJI:           {OverallEJI, "RPL_EJI", "Mean_EJI", "Overall EJI", "#911eb4", "#b88be1", false},
	EnvironmentalBurden:  {EnvironmentalBurden, "RPL_EBM", "Mean_EBM", "Environmental Burden", "#c55c29", "#D2B48C", false},
	SocialVulnerability:  {SocialVulnerability, "RPL_SVM", "Mean_SVM", "Social Vulnerability", "#4363d8", "#87a1e5", false},
	HealthVulnerability:  {HealthVulnerability, "RPL_HVM", "Mean_HVM", "Health Vulnerability", "#f032e6", "#f79be9", false},
	ClimateBurden:        {ClimateBurden, "RPL_CBM", "Mean_CBM", "Climate Burden", "#469990", "#94c9c4", true},
	EJIPlusClimateBurden: {EJIPlusClimateBurden, "RPL_EJI_CBM", "Mean_EJI_CBM", "EJI + Climate Burden", "#801650", "#f17cb0", true},
}

// BaseMetrics are present in every year's data.
var BaseMetrics = []MetricID{OverallEJI, EnvironmentalBurden, SocialVulnerability, HealthVulnerability}

// OptionalMetrics appear only in some years.
var OptionalMetrics = []MetricID{ClimateBurden, EJIPlusClimateBurden}

const (
	// DefaultHeaderColor is used for header cells that are not metrics.
	DefaultHeaderColor = "#FFFFFF"
	// FallbackBarColor is used for a bar whose metric has no catalog entry.
	FallbackBarColor = "#888888"
)

var byColumn = func() map[string]MetricID {
	m := make(map[string]MetricID, 2*len(catalog))
	for _, e := range catalog {
		m[e.Column] = e.ID
		m[e.LegacyColumn] = e.ID
	}
	return m
}()

// AllMetrics returns every metric in catalog order.
func AllMetrics() []MetricID {
	out := make([]MetricID, 0, metricCount)
	for id := MetricID(0); id < metricCount; id++ {
		out = append(out, id)
	}
	return out
}

// Catalog returns a copy of every catalog entry in catalog order.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog[:])
	return out
}

// Valid reports whether m names a catalog entry.
func (m MetricID) Valid() bool {
	return m >= 0 && m < metricCount
}

// Entry returns the catalog entry for m.
func (m MetricID) Entry() (CatalogEntry, bool) {
	if !m.Valid() {
		return CatalogEntry{}, false
	}
	return catalog[m], true
}

// Label is the display name, e.g. "Overall EJI".
func (m MetricID) Label() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return catalog[m].Label
}

// Column is the canonical RPL_* column name.
func (m MetricID) Column() string {
	if !m.Valid() {
		return ""
	}
	return catalog[m].Column
}

// LegacyColumn is the Mean_* column name used by older files.
func (m MetricID) LegacyColumn() string {
	if !m.Valid() {
		return ""
	}
	return catalog[m].LegacyColumn
}

// PrimaryColor is used for single-year bars, headers and the baseline year.
func (m MetricID) PrimaryColor() string {
	if !m.Valid() {
		return FallbackBarColor
	}
	return catalog[m].Primary
}

// SecondaryColor is used for the comparison year.
func (m MetricID) SecondaryColor() string {
	if !m.Valid() {
		return FallbackBarColor
	}
	return catalog[m].Secondary
}

// Optional reports whether the metric may be absent from a year's data.
func (m MetricID) Optional() bool {
	return m.Valid() && catalog[m].Optional
}

func (m MetricID) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return catalog[m].Column
}

// MarshalText encodes the metric as its canonical column name, so metrics
// work as JSON values and map keys.
func (m MetricID) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid metric id %d", int(m))
	}
	return []byte(catalog[m].Column), nil
}

// UnmarshalText accepts canonical or legacy column names.
func (m *MetricID) UnmarshalText(b []byte) error {
	id, ok := MetricByColumn(string(b))
	if !ok {
		return fmt.Errorf("unknown metric column %q", string(b))
	}
	*m = id
	return nil
}

// MetricByColumn resolves a canonical or legacy column name.
func MetricByColumn(column string) (MetricID, bool) {
	id, ok := byColumn[column]
	return id, ok
}

// MetricByLabel resolves a display label such as "Social Vulnerability".
func MetricByLabel(label string) (MetricID, bool) {
	for _, e := range catalog {
		if e.Label == label {
			return e.ID, true
		}
	}
	return 0, false
}

// CanonicalOrder returns metrics deduplicated and in catalog order.
func CanonicalOrder(metrics []MetricID) []MetricID {
	set := make(map[MetricID]bool, len(metrics))
	for _, m := range metrics {
		set[m] = true
	}
	return sortMetrics(set)
}

// sortMetrics returns the members of set in catalog order.
func sortMetrics(set map[MetricID]bool) []MetricID {
	out := make([]MetricID, 0, len(set))
	for id := MetricID(0); id < metricCount; id++ {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
