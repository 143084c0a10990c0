package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ejiviz/internal/eji"
	"ejiviz/internal/guide"
	"ejiviz/internal/metrics"
	"ejiviz/internal/render"
)

const (
	singleChartID  = "eji-chart"
	compareChartID = "eji-compare-chart"
)

// page is the data every HTML template receives.
type page struct {
	Title   string
	Asset   string
	Guides  []guide.Page
	Caption string
	Info    string
	Error   string

	Years      []string
	Year       string
	Baseline   string
	Other      string
	OtherYears []string
	Geo        eji.Geography
	County     string
	Counties   []string

	Notice      string
	DroppedNote string
	Table       template.HTML
	Chart       template.HTML
	Body        template.HTML
	Explain     bool
}

func (s *Server) newPage(title string) page {
	return page{
		Title:   title,
		Asset:   render.EChartsAsset,
		Guides:  guide.Pages(),
		Caption: eji.Caption,
	}
}

func (s *Server) execute(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Template error", "template", name, "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, err error) {
	p := s.newPage(http.StatusText(status))
	p.Error = err.Error()
	s.execute(w, status, "error.html", p)
}

func recordView(kind, notice string) {
	metrics.RecordView(kind, "web")
	if notice != "" {
		metrics.RecordNotice(kind)
	}
}

// selection is the year/geography/county choice shared by every view.
type selection struct {
	geo    eji.Geography
	county string
}

func parseSelection(r *http.Request) (selection, error) {
	geo, err := eji.ParseGeography(r.FormValue("geo"))
	if err != nil {
		return selection{}, err
	}
	return selection{geo: geo, county: r.FormValue("county")}, nil
}

// defaultCounty picks the first county when a county view has none chosen.
func (sel *selection) defaultCounty(counties []string) {
	if sel.geo == eji.GeoCounty && sel.county == "" && len(counties) > 0 {
		sel.county = counties[0]
	}
}

// Dashboard renders the single-year page.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err)
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		year = s.years[0]
	}

	yd, err := s.loader.Year(r.Context(), year)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}
	counties := yd.Counties()
	sel.defaultCounty(counties)

	view := eji.BuildYearView(yd, sel.geo, sel.county, eji.WithThreshold(s.threshold))
	recordView("single", view.Notice)

	p := s.newPage("EJI Visualization")
	p.Info = eji.SingleInfo
	p.Years = s.years
	p.Year = year
	p.Geo = sel.geo
	p.County = sel.county
	p.Counties = counties
	p.Notice = view.Notice
	if view.Found {
		table, err := render.HTMLTable(*view.Table)
		if err != nil {
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		p.Table = table
		p.Chart = render.EChart(*view.Chart, singleChartID)
	}
	s.execute(w, http.StatusOK, "dashboard.html", p)
}

// compareSelection resolves baseline and other years with their defaults.
func (s *Server) compareSelection(r *http.Request) (baseline, other string, others []string, err error) {
	baseline = r.FormValue("baseline")
	if baseline == "" {
		baseline = s.years[0]
	}
	others = eji.OtherYears(s.years, baseline)
	other = r.FormValue("other")
	if other == "" && len(others) > 0 {
		other = others[0]
	}
	if other == "" || other == baseline {
		return "", "", nil, errors.New("choose two different years to compare")
	}
	return baseline, other, others, nil
}

func (s *Server) comparisonView(r *http.Request) (eji.ComparisonView, []string, []string, error) {
	sel, err := parseSelection(r)
	if err != nil {
		return eji.ComparisonView{}, nil, nil, err
	}
	baseline, other, others, err := s.compareSelection(r)
	if err != nil {
		return eji.ComparisonView{}, nil, nil, err
	}
	base, err := s.loader.Year(r.Context(), baseline)
	if err != nil {
		return eji.ComparisonView{}, nil, nil, err
	}
	counties := base.Counties()
	sel.defaultCounty(counties)

	cmp, err := s.loader.Year(r.Context(), other)
	if err != nil {
		return eji.ComparisonView{}, nil, nil, err
	}
	view := eji.BuildComparisonView(base, cmp, sel.geo, sel.county, eji.WithThreshold(s.threshold))
	return view, counties, others, nil
}

// Compare renders the two-year comparison page.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	view, counties, others, err := s.comparisonView(r)
	if err != nil {
		s.renderError(w, requestStatus(err), err)
		return
	}
	recordView("comparison", view.Notice)

	p := s.newPage("Year-Year Comparison")
	p.Info = eji.ComparisonInfo
	p.Years = s.years
	p.Baseline = view.Baseline
	p.Other = view.Other
	p.OtherYears = others
	p.Geo = view.Geography
	p.County = r.FormValue("county")
	if view.Geography == eji.GeoCounty {
		p.County = view.Area
	}
	p.Counties = counties
	p.Notice = view.Notice
	p.DroppedNote = view.DroppedNote()
	p.Explain = s.explainer != nil
	if view.Found {
		table, err := render.HTMLTable(*view.Table)
		if err != nil {
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		p.Table = table
		p.Chart = render.EChart(*view.Chart, compareChartID)
	}
	s.execute(w, http.StatusOK, "compare.html", p)
}

// requestStatus maps load errors as statusFor does and treats anything else
// as a bad request.
func requestStatus(err error) int {
	if status := statusFor(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadRequest
}

type narration struct {
	Notice string
	Body   template.HTML
	Model  string
}

// Explain returns an HTML fragment narrating the comparison.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	if s.explainer == nil {
		http.Error(w, "Narration not available: ANTHROPIC_API_KEY not set", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	view, _, _, err := s.comparisonView(r)
	if err != nil {
		http.Error(w, err.Error(), requestStatus(err))
		return
	}
	if !view.Found {
		s.execute(w, http.StatusOK, "narration.html", narration{Notice: view.Notice})
		return
	}

	text, err := s.explainer.Explain(r.Context(), view)
	if err != nil {
		s.logger.Error("Narration failed", "baseline", view.Baseline, "other", view.Other, "error", err)
		http.Error(w, "Narration failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	body, err := guide.MarkdownHTML(text)
	if err != nil {
		http.Error(w, "Narration failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.execute(w, http.StatusOK, "narration.html", narration{Body: body, Model: s.explainer.Model()})
}

// Guide renders one explainer page.
func (s *Server) Guide(w http.ResponseWriter, r *http.Request) {
	g, err := guide.Get(chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, guide.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}
	body, err := g.HTML()
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}
	p := s.newPage(g.Title)
	p.Body = body
	s.execute(w, http.StatusOK, "guide.html", p)
}
