// Package server exposes computed DORA metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opsmetrics/doratracker/internal/collector"
	"github.com/opsmetrics/doratracker/internal/dora"
	"github.com/opsmetrics/doratracker/internal/report"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
)

// Server computes metrics on demand from a collection source
type Server struct {
	source collector.Source
	router chi.Router
}

func New(source collector.Source) *Server {
	s := &Server{source: source}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving metrics API on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	days := defaultPeriodDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPeriodDays {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "days must be an integer between 1 and 365",
			})
			return
		}
		days = parsed
	}

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -days)

	deployments, err := s.source.CollectDeployments(r.Context(), startDate, endDate)
	if err != nil {
		log.Printf("Error collecting deployments: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to collect deployments"})
		return
	}

	incidents, err := s.source.CollectIncidents(r.Context(), startDate, endDate)
	if err != nil {
		log.Printf("Error collecting incidents: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to collect incidents"})
		return
	}

	result := dora.Compute(deployments, incidents)
	writeJSON(w, http.StatusOK, report.New(result, s.source.Name(), days))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
