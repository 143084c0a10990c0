// Package web serves the EJI dashboard over HTTP: HTML pages for browsers and
// a JSON API returning the same table and chart specifications.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ejiviz/internal/data"
	"ejiviz/internal/eji"
	"ejiviz/internal/logging"
	"ejiviz/internal/metrics"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// Explainer narrates a comparison in prose.
type Explainer interface {
	Explain(ctx context.Context, view eji.ComparisonView) (string, error)
	Model() string
}

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Addr           string
	Loader         data.Loader
	Years          []string
	Explainer      Explainer
	Threshold      float64
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server renders dashboard pages and API responses.
type Server struct {
	loader    data.Loader
	years     []string
	explainer Explainer
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
	templates *template.Template
}

// NewServer parses the embedded templates and applies defaults.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Loader == nil {
		return nil, errors.New("web server requires a data loader")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s := &Server{
		loader:    cfg.Loader,
		years:     cfg.Years,
		explainer: cfg.Explainer,
		threshold: cfg.Threshold,
		timeout:   cfg.RequestTimeout,
		logger:    logging.OrDiscard(cfg.Logger),
		templates: tmpl,
	}
	if len(s.years) == 0 {
		s.years = append([]string(nil), data.SupportedYears...)
	}
	if s.threshold <= 0 {
		s.threshold = eji.HighlightThreshold
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}
	return s, nil
}

// Router builds the chi router with middleware and every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(metricsMiddleware)

	r.Get("/", s.Dashboard)
	r.Get("/compare", s.Compare)
	r.Post("/compare/explain", s.Explain)
	r.Get("/guide/{slug}", s.Guide)

	r.Route("/api", func(r chi.Router) {
		r.Get("/years", s.APIYears)
		r.Get("/years/{year}/counties", s.APICounties)
		r.Get("/years/{year}/view", s.APIYearView)
		r.Get("/compare", s.APICompare)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, cfg ServerConfig) error {
	s, err := NewServer(cfg)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// statusFor maps load errors to HTTP status codes.
func statusFor(err error) int {
	var dle *data.DataLoadError
	switch {
	case errors.Is(err, data.ErrUnsupportedYear):
		return http.StatusBadRequest
	case errors.As(err, &dle):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
