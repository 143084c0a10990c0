package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ejiviz/internal/data"
	"ejiviz/internal/eji"
)

type fakeLoader struct {
	years map[string]eji.YearData
	err   error
}

func (f *fakeLoader) Year(ctx context.Context, year string) (eji.YearData, error) {
	if err := data.ValidYear(year); err != nil {
		return eji.YearData{}, err
	}
	if f.err != nil {
		return eji.YearData{}, f.err
	}
	return f.years[year], nil
}

type fakeExplainer struct {
	calls int
}

func (f *fakeExplainer) Explain(ctx context.Context, v eji.ComparisonView) (string, error) {
	f.calls++
	return "**" + v.Area + "** changed between " + v.Baseline + " and " + v.Other + ".", nil
}

func (f *fakeExplainer) Model() string { return "test-model" }

func testLoader() *fakeLoader {
	state := func(cols ...string) eji.Table {
		return eji.Normalize(eji.Table{
			Columns: append([]string{"State"}, cols...),
			Rows:    [][]any{{"New Mexico", "0.60", "0.45", "0.70", "0.50"}},
		})
	}
	return &fakeLoader{years: map[string]eji.YearData{
		"2022": {
			Year:  "2022",
			State: state("Mean_EJI", "Mean_EBM", "Mean_SVM", "Mean_HVM"),
			County: eji.Normalize(eji.Table{
				Columns: []string{"County", "Mean_EJI", "Mean_EBM", "Mean_SVM", "Mean_HVM"},
				Rows: [][]any{
					{"Bernalillo", "0.40", "0.35", "0.52", "0.30"},
					{"Luna", "0.80", "0.64", "0.50", "0.71"},
				},
			}),
		},
		"2024": {
			Year:  "2024",
			State: state("RPL_EJI", "RPL_EBM", "RPL_SVM", "RPL_HVM"),
			County: eji.Normalize(eji.Table{
				Columns: []string{"County", "RPL_EJI", "RPL_EBM", "RPL_SVM", "RPL_HVM", "RPL_CBM", "RPL_EJI_CBM"},
				Rows: [][]any{
					{"Luna", "0.82", "0.60", "0.55", "0.70", "", "0.77"},
					{"Santa Fe", "0.30", "0.21", "0.33", "0.27", "0.44", "0.31"},
				},
			}),
		},
	}}
}

func newTestServer(t *testing.T, loader data.Loader, explainer Explainer) http.Handler {
	t.Helper()
	s, err := NewServer(ServerConfig{Loader: loader, Explainer: explainer})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s.Router()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresLoader(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("expected error without a loader")
	}
}

func TestDashboard(t *testing.T) {
	h := newTestServer(t, testLoader(), nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		contains   []string
		excludes   []string
	}{
		{
			name:       "state default",
			target:     "/",
			wantStatus: http.StatusOK,
			contains:   []string{"EJI Data for New Mexico — 2022", "eji-chart", eji.SingleInfo[:20]},
		},
		{
			name:       "county defaults to first county",
			target:     "/?year=2022&geo=county",
			wantStatus: http.StatusOK,
			contains:   []string{"EJI Data for Bernalillo — 2022"},
		},
		{
			name:       "county missing from year",
			target:     "/?year=2024&geo=county&county=Bernalillo",
			wantStatus: http.StatusOK,
			contains:   []string{"No data found for Bernalillo."},
			excludes:   []string{"eji-chart"},
		},
		{
			name:       "highlighted county",
			target:     "/?year=2024&geo=county&county=Luna",
			wantStatus: http.StatusOK,
			contains:   []string{`class="highlight"`, eji.NoDataText},
		},
		{
			name:       "unsupported year",
			target:     "/?year=2020",
			wantStatus: http.StatusBadRequest,
			contains:   []string{"unsupported year"},
		},
		{
			name:       "bad geography",
			target:     "/?geo=tract",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d\n%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := rec.Body.String()
			for _, want := range tt.contains {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(body, unwanted) {
					t.Errorf("body should not contain %q", unwanted)
				}
			}
		})
	}
}

func TestDashboardLoadFailure(t *testing.T) {
	loader := &fakeLoader{err: &data.DataLoadError{Year: "2022", Source: "http://example.test/x.csv", Err: errors.New("404 Not Found")}}
	h := newTestServer(t, loader, nil)

	rec := get(t, h, "/?year=2022")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "404 Not Found") {
		t.Errorf("error text should be shown verbatim:\n%s", rec.Body.String())
	}
}

func TestCompare(t *testing.T) {
	h := newTestServer(t, testLoader(), nil)

	rec := get(t, h, "/compare?baseline=2022&other=2024&geo=county&county=Luna")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"eji-compare-chart", "Climate Burden", "omitted from the comparison"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "hx-post") {
		t.Error("explain form should be hidden without an explainer")
	}

	rec = get(t, h, "/compare?baseline=2022&other=2024&geo=county&county=Bernalillo")
	if !strings.Contains(rec.Body.String(), "No data for Bernalillo in one of the years") {
		t.Error("expected missing-county notice")
	}

	rec = get(t, h, "/compare?baseline=2022&other=2022")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("same-year compare status = %d, want 400", rec.Code)
	}
}

func TestExplain(t *testing.T) {
	form := url.Values{"baseline": {"2022"}, "other": {"2024"}, "geo": {"county"}, "county": {"Luna"}}
	post := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/compare/explain", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("no explainer", func(t *testing.T) {
		rec := post(newTestServer(t, testLoader(), nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("narrates", func(t *testing.T) {
		ex := &fakeExplainer{}
		rec := post(newTestServer(t, testLoader(), ex))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<strong>Luna</strong>") || !strings.Contains(body, "test-model") {
			t.Errorf("unexpected fragment:\n%s", body)
		}
		if ex.calls != 1 {
			t.Errorf("explainer calls = %d, want 1", ex.calls)
		}
	})
}

func TestGuide(t *testing.T) {
	h := newTestServer(t, testLoader(), nil)

	rec := get(t, h, "/guide/eji-scale")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "What Does the EJI Mean?") {
		t.Error("guide title missing")
	}

	if rec := get(t, h, "/guide/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown guide status = %d, want 404", rec.Code)
	}
}

func TestAPI(t *testing.T) {
	h := newTestServer(t, testLoader(), nil)

	t.Run("years", func(t *testing.T) {
		rec := get(t, h, "/api/years")
		var got struct {
			Years []string `json:"years"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if strings.Join(got.Years, ",") != "2022,2024" {
			t.Errorf("years = %v", got.Years)
		}
	})

	t.Run("counties", func(t *testing.T) {
		rec := get(t, h, "/api/years/2024/counties")
		var got struct {
			Counties []string `json:"counties"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if strings.Join(got.Counties, ",") != "Luna,Santa Fe" {
			t.Errorf("counties = %v", got.Counties)
		}
	})

	t.Run("view", func(t *testing.T) {
		rec := get(t, h, "/api/years/2024/view?geo=county&county=Santa%20Fe")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got eji.YearView
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if !got.Found || got.Area != "Santa Fe" || len(got.Metrics) != 6 {
			t.Errorf("unexpected view: %+v", got)
		}
	})

	t.Run("view unsupported year", func(t *testing.T) {
		rec := get(t, h, "/api/years/1999/view")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("compare", func(t *testing.T) {
		rec := get(t, h, "/api/compare?baseline=2022&other=2024")
		var got struct {
			Found         bool              `json:"found"`
			Discrepancies []eji.Discrepancy `json:"discrepancies"`
			DroppedNote   string            `json:"dropped_note"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if !got.Found || len(got.Discrepancies) != 4 {
			t.Errorf("unexpected comparison: %+v", got)
		}
		if got.DroppedNote == "" {
			t.Error("expected dropped metrics note")
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, testLoader(), nil)
	if rec := get(t, h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	get(t, h, "/api/years")
	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "eji_dashboard_http_requests_total") {
		t.Errorf("request counter not exported:\n%s", rec.Body.String())
	}
}
