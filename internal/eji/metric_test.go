package eji

import (
	"encoding/json"
	"testing"
)

func TestCatalogOrderAndLookups(t *testing.T) {
	want := []struct {
		id      MetricID
		column  string
		legacy  string
		label   string
		primary string
		second  string
	}{
		{OverallEJI, "RPL_EJI", "Mean_EJI", "Overall EJI", "#911eb4", "#b88be1"},
		{EnvironmentalBurden, "RPL_EBM", "Mean_EBM", "Environmental Burden", "#c55c29", "#D2B48C"},
		{SocialVulnerability, "RPL_SVM", "Mean_SVM", "Social Vulnerability", "#4363d8", "#87a1e5"},
		{HealthVulnerability, "RPL_HVM", "Mean_HVM", "Health Vulnerability", "#f032e6", "#f79be9"},
		{ClimateBurden, "RPL_CBM", "Mean_CBM", "Climate Burden", "#469990", "#94c9c4"},
		{EJIPlusClimateBurden, "RPL_EJI_CBM", "Mean_EJI_CBM", "EJI + Climate Burden", "#801650", "#f17cb0"},
	}

	all := AllMetrics()
	if len(all) != len(want) {
		t.Fatalf("Expected %d metrics, got %d", len(want), len(all))
	}
	for i, w := range want {
		t.Run(w.column, func(t *testing.T) {
			if all[i] != w.id {
				t.Errorf("Expected metric %d at position %d, got %d", w.id, i, all[i])
			}
			if got := w.id.Column(); got != w.column {
				t.Errorf("Column: expected %s, got %s", w.column, got)
			}
			if got := w.id.LegacyColumn(); got != w.legacy {
				t.Errorf("LegacyColumn: expected %s, got %s", w.legacy, got)
			}
			if got := w.id.Label(); got != w.label {
				t.Errorf("Label: expected %s, got %s", w.label, got)
			}
			if got := w.id.PrimaryColor(); got != w.primary {
				t.Errorf("PrimaryColor: expected %s, got %s", w.primary, got)
			}
			if got := w.id.SecondaryColor(); got != w.second {
				t.Errorf("SecondaryColor: expected %s, got %s", w.second, got)
			}
			for _, col := range []string{w.column, w.legacy} {
				id, ok := MetricByColumn(col)
				if !ok || id != w.id {
					t.Errorf("MetricByColumn(%s) = %v, %v", col, id, ok)
				}
			}
			if id, ok := MetricByLabel(w.label); !ok || id != w.id {
				t.Errorf("MetricByLabel(%s) = %v, %v", w.label, id, ok)
			}
		})
	}
}

func TestBaseAndOptionalMetrics(t *testing.T) {
	for _, m := range BaseMetrics {
		if m.Optional() {
			t.Errorf("Expected %s to be a base metric", m)
		}
	}
	for _, m := range OptionalMetrics {
		if !m.Optional() {
			t.Errorf("Expected %s to be optional", m)
		}
	}
}

func TestUnknownMetricFallbacks(t *testing.T) {
	bogus := MetricID(42)
	if bogus.Valid() {
		t.Fatal("Expected MetricID(42) to be invalid")
	}
	if got := bogus.PrimaryColor(); got != FallbackBarColor {
		t.Errorf("Expected fallback color %s, got %s", FallbackBarColor, got)
	}
	if _, ok := MetricByColumn("RPL_THEME1"); ok {
		t.Error("Expected RPL_THEME1 to be unknown")
	}
	if _, err := json.Marshal(bogus); err == nil {
		t.Error("Expected marshaling an invalid metric to fail")
	}
}

func TestMetricJSON(t *testing.T) {
	in := map[MetricID]Value{OverallEJI: Of(0.5), ClimateBurden: Missing}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got, want := string(b), `{"RPL_CBM":null,"RPL_EJI":0.5}`; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	var ids []MetricID
	if err := json.Unmarshal([]byte(`["RPL_SVM","Mean_HVM"]`), &ids); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != SocialVulnerability || ids[1] != HealthVulnerability {
		t.Errorf("Unexpected metrics %v", ids)
	}
}

func TestContrastColor(t *testing.T) {
	testCases := []struct {
		name string
		hex  string
		want string
	}{
		{"white background", "#FFFFFF", TextBlack},
		{"black background", "#000000", TextWhite},
		{"purple EJI", "#911eb4", TextWhite},
		{"tan secondary", "#D2B48C", TextBlack},
		{"no hash", "ffb3b3", TextBlack},
		{"teal CBM", "#469990", TextWhite},
		{"too short", "#fff", TextBlack},
		{"not hex", "#zzzzzz", TextBlack},
		{"empty", "", TextBlack},
		{"signed", "#+12345", TextBlack},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContrastColor(tc.hex); got != tc.want {
				t.Errorf("ContrastColor(%q) = %s, expected %s", tc.hex, got, tc.want)
			}
		})
	}
}
