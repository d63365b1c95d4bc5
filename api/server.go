package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aoztanir/email-agent/config"
	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/services"
	"github.com/aoztanir/email-agent/storage"
	"github.com/aoztanir/email-agent/utils"
)

// SearchRequest is the body of a POST /api/search call.
type SearchRequest struct {
	Query string `json:"query"`
	Total int    `json:"total"`
}

// Server wires the scrape pipeline and stores to HTTP routes.
type Server struct {
	cfg      *config.Config
	pipeline *services.Pipeline
	store    storage.CompanyStore
	insights *services.InsightService
	recent   *utils.RecentSearches
	limiter  *utils.RunLimiter
	logger   *utils.Logger
}

// NewServer creates a Server around an assembled pipeline.
func NewServer(cfg *config.Config, pipeline *services.Pipeline, store storage.CompanyStore, logger *utils.Logger) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
		insights: services.NewInsightService(logger),
		recent:   utils.NewRecentSearches(cfg.RecentSearchCap),
		limiter:  utils.NewRunLimiter(cfg.MaxConcurrentRuns),
		logger:   logger,
	}
}

// Router returns the configured route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/api/companies", s.handleCompanies).Methods(http.MethodGet)
	r.HandleFunc("/api/insights", s.handleInsights).Methods(http.MethodGet)
	r.HandleFunc("/api/recent-searches", s.handleRecentSearches).Methods(http.MethodGet)
	return r
}

// handleSearch validates the request, then streams pipeline events to the
// client as Server-Sent Events. Validation failures are plain JSON errors
// before any streaming begins; once the stream starts, failures arrive as a
// terminal error event and the server closes the connection after it.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	total := req.Total
	if total <= 0 {
		total = s.cfg.DefaultTotal
	}
	if total > s.cfg.MaxTotal {
		total = s.cfg.MaxTotal
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if !s.limiter.TryAcquire() {
		writeError(w, http.StatusServiceUnavailable, "too many scrape runs in progress, try again later")
		return
	}
	defer s.limiter.Release()

	s.recent.Add(req.Query)
	s.logger.Info("[api] Search run — query: %q, total: %d", req.Query, total)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for event := range s.pipeline.Run(r.Context(), req.Query, total) {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("[api] Failed to encode %s event: %v", event.Type, err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// handleCompanies lists stored companies, optionally restricted to one run.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	promptID := r.URL.Query().Get("promptId")

	companies, err := s.store.FetchCompanies(promptID)
	if err != nil {
		s.logger.Error("[api] Fetch companies failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch companies")
		return
	}
	if companies == nil {
		companies = []*models.Company{}
	}

	writeJSON(w, http.StatusOK, companies)
}

// handleInsights computes aggregate stats over everything stored so far.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.FetchCompanies("")
	if err != nil {
		s.logger.Error("[api] Fetch companies for insights failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	writeJSON(w, http.StatusOK, s.insights.Generate(companies))
}

func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.recent.List())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
