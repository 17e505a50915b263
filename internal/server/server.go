// Package server exposes the monitor's state over HTTP: health,
// latest reports per category, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// ReportSource is what the server reads from the running monitor.
type ReportSource interface {
	Categories() []string
	LatestReport(category string) (*types.ChangeReport, bool)
}

// Server is the embedded status HTTP server.
type Server struct {
	httpServer *http.Server
	source     ReportSource
	logger     utils.Logger
}

// New wires the routes. metricsHandler may be nil to disable /metrics.
func New(address string, source ReportSource, metricsHandler http.Handler, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewComponentLogger("server")
	}

	s := &Server{source: source, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/reports", s.handleReports).Methods(http.MethodGet)
	router.HandleFunc("/api/reports/{category}", s.handleReport).Methods(http.MethodGet)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start serves until Shutdown; it returns when the listener closes.
func (s *Server) Start() error {
	s.logger.WithField("address", s.httpServer.Addr).Info("status server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReports lists every category with its latest report, omitting
// categories that have not completed a run yet.
func (s *Server) handleReports(w http.ResponseWriter, _ *http.Request) {
	reports := make(map[string]*types.ChangeReport)
	for _, category := range s.source.Categories() {
		if report, ok := s.source.LatestReport(category); ok {
			reports[category] = report
		}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	report, ok := s.source.LatestReport(category)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report for category: " + category})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}
