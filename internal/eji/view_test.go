package eji

import (
	"math"
	"strings"
	"testing"
)

func yearData(year string, county Table) YearData {
	return YearData{
		Year: year,
		State: Normalize(Table{
			Columns: []string{"State", "Mean_EJI", "Mean_EBM", "Mean_SVM", "Mean_HVM"},
			Rows:    [][]any{{"New Mexico", "0.60", "0.45", "0.70", "0.50"}},
		}),
		County: Normalize(county),
	}
}

func county2022() Table {
	return Table{
		Columns: []string{"County", "Mean_EJI", "Mean_EBM", "Mean_SVM", "Mean_HVM"},
		Rows: [][]any{
			{"Bernalillo", "0.40", "0.35", "0.52", "0.30"},
			{"Luna", "0.80", "0.64", "0.50", "0.71"},
		},
	}
}

func county2024() Table {
	return Table{
		Columns: []string{"County", "RPL_EJI", "RPL_EBM", "RPL_SVM", "RPL_HVM", "RPL_CBM", "RPL_EJI_CBM"},
		Rows: [][]any{
			{"Luna", "0.82", "0.60", "0.55", "0.70", "", "0.77"},
			{"Santa Fe", "0.30", "0.21", "0.33", "0.27", "0.44", "0.31"},
		},
	}
}

func TestBuildYearView(t *testing.T) {
	y := yearData("2024", county2024())

	v := BuildYearView(y, GeoCounty, "Luna")
	if !v.Found || v.Notice != "" {
		t.Fatalf("Expected Luna to be found, got notice %q", v.Notice)
	}
	if len(v.Metrics) != 6 {
		t.Errorf("Expected optional metrics for 2024, got %v", v.Metrics)
	}
	if v.Table.Rows[0].Cells[5].Text != "No Data" {
		t.Errorf("Expected missing CBM to read No Data, got %q", v.Table.Rows[0].Cells[5].Text)
	}
	if !v.Table.Rows[0].Highlight {
		t.Error("Expected Luna 2024 to be highlighted")
	}
	if v.Chart.Traces[1].Bars[4].Height != NoDataHeight {
		t.Errorf("Expected hatched placeholder for CBM, got %+v", v.Chart.Traces[1].Bars[4])
	}

	state := BuildYearView(y, GeoState, "")
	if !state.Found || state.Area != "New Mexico" || state.Table.Header[0].Label != "State" {
		t.Errorf("Unexpected state view %+v", state)
	}

	missing := BuildYearView(y, GeoCounty, "Catron")
	if missing.Found || missing.Notice != "No data found for Catron." || missing.Table != nil || missing.Chart != nil {
		t.Errorf("Unexpected missing-county view %+v", missing)
	}

	noState := BuildYearView(YearData{Year: "2024", County: y.County}, GeoState, "")
	if noState.Found || noState.Notice != "No New Mexico data found." {
		t.Errorf("Unexpected missing-state view %+v", noState)
	}
}

func TestBuildComparisonView(t *testing.T) {
	y1 := yearData("2022", county2022())
	y2 := yearData("2024", county2024())

	t.Run("worsened overall EJI", func(t *testing.T) {
		base := yearData("2022", Table{
			Columns: []string{"County", "RPL_EJI", "RPL_EBM", "RPL_SVM", "RPL_HVM"},
			Rows:    [][]any{{"Luna", "0.40", "0.60", "0.55", "0.70"}},
		})
		other := yearData("2024", Table{
			Columns: []string{"County", "RPL_EJI", "RPL_EBM", "RPL_SVM", "RPL_HVM"},
			Rows:    [][]any{{"Luna", "0.55", "0.60", "0.55", "0.70"}},
		})
		v := BuildComparisonView(base, other, GeoCounty, "Luna")
		d := v.Discrepancies[0]
		if d.Metric != OverallEJI || d.Direction != Worsened || math.Abs(d.Delta-0.15) > epsilon {
			t.Errorf("Unexpected discrepancy %+v", d)
		}
		baseBar := v.Chart.Traces[0].Bars[0]
		up := v.Chart.Traces[1].Bars[0]
		if baseBar.Height != 0.40 || math.Abs(up.Height-0.15) > epsilon {
			t.Errorf("Expected segment above the 0.40 bar, got %+v %+v", baseBar, up)
		}
	})

	t.Run("county absent from one year", func(t *testing.T) {
		v := BuildComparisonView(y1, y2, GeoCounty, "Bernalillo")
		if v.Found || v.Notice != "No data for Bernalillo in one of the years" {
			t.Errorf("Unexpected view %+v", v)
		}
		if v.Chart != nil || v.Table != nil {
			t.Error("Expected no chart or table")
		}
	})

	t.Run("optional metrics dropped", func(t *testing.T) {
		v := BuildComparisonView(y1, y2, GeoCounty, "Luna")
		if !v.Found {
			t.Fatalf("Expected Luna in both years: %s", v.Notice)
		}
		if len(v.Metrics) != len(BaseMetrics) || len(v.Dropped) != 2 {
			t.Errorf("Expected base metrics only, got %v dropped %v", v.Metrics, v.Dropped)
		}
		if !strings.Contains(v.DroppedNote(), "Climate Burden") {
			t.Errorf("Unexpected dropped note %q", v.DroppedNote())
		}
		if len(v.Chart.Traces) != 4 || len(v.Table.Rows) != 2 {
			t.Errorf("Unexpected chart/table shape")
		}
		if v.Table.Rows[0].Cells[1].Text != "2022" || v.Table.Rows[1].Cells[1].Text != "2024" {
			t.Errorf("Expected year column, got %+v", v.Table.Rows)
		}
	})

	t.Run("state comparison", func(t *testing.T) {
		v := BuildComparisonView(y1, y2, GeoState, "")
		if !v.Found || v.Area != "New Mexico" {
			t.Errorf("Unexpected state comparison %+v", v)
		}
		for _, d := range v.Discrepancies {
			if d.Direction != Unchanged {
				t.Errorf("Expected identical state rows to be unchanged, got %s for %s", d.Direction, d.Metric)
			}
		}
	})
}

func TestParseGeography(t *testing.T) {
	for in, want := range map[string]Geography{"": GeoState, "New Mexico": GeoState, "County": GeoCounty, "county": GeoCounty} {
		got, err := ParseGeography(in)
		if err != nil || got != want {
			t.Errorf("ParseGeography(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseGeography("tract"); err == nil {
		t.Error("Expected an error for an unknown geography")
	}
}

func TestOtherYears(t *testing.T) {
	got := OtherYears([]string{"2022", "2024"}, "2022")
	if len(got) != 1 || got[0] != "2024" {
		t.Errorf("Expected [2024], got %v", got)
	}
}
