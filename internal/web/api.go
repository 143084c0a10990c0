package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ejiviz/internal/eji"
)

// APIYears lists the supported years.
func (s *Server) APIYears(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"years": s.years,
	})
}

// APICounties lists the counties present in a year.
func (s *Server) APICounties(w http.ResponseWriter, r *http.Request) {
	year := chi.URLParam(r, "year")
	yd, err := s.loader.Year(r.Context(), year)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"counties": yd.Counties(),
	})
}

// APIYearView returns the single-year view for ?geo= and ?county=.
func (s *Server) APIYearView(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	yd, err := s.loader.Year(r.Context(), chi.URLParam(r, "year"))
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	sel.defaultCounty(yd.Counties())

	view := eji.BuildYearView(yd, sel.geo, sel.county, eji.WithThreshold(s.threshold))
	recordView("single", view.Notice)
	respondJSON(w, http.StatusOK, view)
}

// APICompare returns the comparison view for ?baseline=, ?other=, ?geo= and
// ?county=.
func (s *Server) APICompare(w http.ResponseWriter, r *http.Request) {
	view, _, _, err := s.comparisonView(r)
	if err != nil {
		respondError(w, requestStatus(err), err)
		return
	}
	recordView("comparison", view.Notice)
	respondJSON(w, http.StatusOK, struct {
		eji.ComparisonView
		DroppedNote string `json:"dropped_note,omitempty"`
	}{view, view.DroppedNote()})
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}

// respondJSON writes data as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("JSON encoding error", "error", err)
	}
}
