package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/multicrawler/internal/crawler"
	"github.com/nao1215/multicrawler/internal/model"
)

// maxRequestBody caps the size of a start request body.
const maxRequestBody = 1 << 20

// Controller is the crawl lifecycle the API drives.
// *crawler.Orchestrator satisfies it.
type Controller interface {
	Start(req model.CrawlRequest) error
	Stop()
	Resume()
	Terminate()
	Status() model.Status
	Results() []model.CrawlResult
	StoredResults(ctx context.Context) ([]model.CrawlResult, error)
	ClearStore(ctx context.Context) error
}

// StatsSource aggregates persisted results.
// *database.CrawlDB satisfies it.
type StatsSource interface {
	Statistics(ctx context.Context) (model.Statistics, error)
}

// Server is the HTTP control plane for one Controller.
type Server struct {
	crawler  Controller
	stats    StatsSource
	logger   *slog.Logger
	defaults model.CrawlRequest
	now      func() time.Time
	mux      *http.ServeMux
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithStatsSource sets where GET /api/stats reads from. Without one the
// statistics are computed from the in-memory results.
func WithStatsSource(stats StatsSource) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

// WithLogger sets the logger for request and failure logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestDefaults sets the values used for fields a start request omits.
func WithRequestDefaults(req model.CrawlRequest) Option {
	return func(s *Server) {
		s.defaults = req
	}
}

// NewServer creates a Server for the given controller.
func NewServer(c Controller, opts ...Option) *Server {
	s := &Server{
		crawler: c,
		logger:  slog.Default(),
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	s.handler = s.withCORS(s.withRecovery(s.mux))
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/start", s.handleStart)
	s.mux.HandleFunc("POST /api/stop", s.handleStop)
	s.mux.HandleFunc("POST /api/resume", s.handleResume)
	s.mux.HandleFunc("POST /api/terminate", s.handleTerminate)
	s.mux.HandleFunc("POST /api/clear-db", s.handleClearDB)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/results", s.handleResults)
	s.mux.HandleFunc("GET /api/db-results", s.handleDBResults)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.Handle("GET /static/", http.FileServerFS(staticFS))
	s.mux.HandleFunc("/", s.handleNotFound)
}

// statusResponse acknowledges a lifecycle command.
type statusResponse struct {
	Status string `json:"status"`
}

// successResponse reports the outcome of a store operation.
type successResponse struct {
	Success bool `json:"success"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	// Absent fields keep their configured defaults.
	req := s.defaults
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.crawler.Start(req); err != nil {
		s.logger.Debug("rejected start request", "seed", req.SeedURL, "error", err)
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "started"})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.crawler.Stop()
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "stopped"})
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	s.crawler.Resume()
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "resumed"})
}

func (s *Server) handleTerminate(w http.ResponseWriter, _ *http.Request) {
	s.crawler.Terminate()
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "terminated"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.crawler.Status())
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	results := s.crawler.Results()
	if results == nil {
		results = []model.CrawlResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleDBResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.crawler.StoredResults(r.Context())
	if err != nil {
		s.writeStoreError(w, "load stored results", err)
		return
	}
	if results == nil {
		results = []model.CrawlResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleClearDB(w http.ResponseWriter, r *http.Request) {
	if err := s.crawler.ClearStore(r.Context()); err != nil {
		s.logger.Warn("failed to clear stored results", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, successResponse{Success: false})
		return
	}
	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.writeJSON(w, http.StatusOK, model.ComputeStatistics(s.crawler.Results()))
		return
	}
	stats, err := s.stats.Statistics(r.Context())
	if err != nil {
		s.writeStoreError(w, "compute statistics", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UnixMilli(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusNotFound, "Not found")
}

// writeStoreError maps a store failure to 503 when no store exists and 500 otherwise.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, crawler.ErrNoStore) {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Warn("failed to "+op, "error", err)
	s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to %s", op))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
