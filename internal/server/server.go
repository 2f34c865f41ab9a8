package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/linkscout/internal/app"
	"github.com/raysh454/linkscout/internal/competitor"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/metrics"
	"github.com/raysh454/linkscout/internal/model"

	_ "github.com/raysh454/linkscout/internal/server/docs" // registers the swagger spec
)

// Server is the HTTP + WebSocket API surface for linkscout.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	metrics      *metrics.Metrics
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer serves orch over HTTP. m may be nil, in which case /metrics is
// not mounted.
func NewServer(cfg Config, orch *app.Orchestrator, m *metrics.Metrics) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		metrics:      m,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.routes()
	return s
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scans", s.optionsHandler("GET, POST"))
	r.Options("/scans/{id}", s.optionsHandler("GET, DELETE"))
	r.Options("/scans/{id}/opportunities", s.optionsHandler("GET"))
	r.Options("/competitors/analyze", s.optionsHandler("POST"))
	r.Options("/competitors/{domain}/history", s.optionsHandler("GET"))
	r.Options("/competitors/{domain}/changes", s.optionsHandler("GET"))
	r.Options("/opportunities/broken-links", s.optionsHandler("POST"))
	r.Options("/opportunities/resource-pages", s.optionsHandler("POST"))

	// Scans
	r.Post("/scans", s.handleStartScan)
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{id}", s.handleGetScan)
	r.Get("/scans/{id}/opportunities", s.handleGetOpportunities)
	r.Delete("/scans/{id}", s.handleCancelScan)

	// Competitors
	r.Post("/competitors/analyze", s.handleAnalyzeCompetitors)
	r.Get("/competitors/{domain}/history", s.handleCompetitorHistory)
	r.Get("/competitors/{domain}/changes", s.handleCompetitorChanges)

	// Standalone finders
	r.Post("/opportunities/broken-links", s.handleBrokenLinks)
	r.Post("/opportunities/resource-pages", s.handleResourcePages)

	// WebSocket for scan progress
	r.Get("/ws/scans/{id}", s.handleScanWS)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() error {
	if s.orchestrator != nil {
		return s.orchestrator.Close()
	}
	return nil
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, competitor.ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrSearchProvider),
		errors.Is(err, model.ErrBacklinkProvider),
		errors.Is(err, model.ErrContactProvider),
		errors.Is(err, model.ErrLinkProvider):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	fields := []logging.Field{logging.Err(err), {Key: "status", Value: status}}
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Warn(msg, fields...)
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// --- HTTP handlers ---

// Scans

// handleStartScan godoc
// @Summary Start a scan
// @Tags scans
// @Accept json
// @Produce json
// @Param request body model.ScanConfiguration true "Scan configuration"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Router /scans [post]
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var cfg model.ScanConfiguration
	if !decodeBody(w, r, &cfg) {
		return
	}

	job, err := s.orchestrator.StartScan(r.Context(), cfg)
	if err != nil {
		s.fail(w, "starting scan", err)
		return
	}
	s.logger.Info("started scan", logging.Field{Key: "session_id", Value: job.ID}, logging.Field{Key: "keyword", Value: job.Keyword})
	writeJSON(w, http.StatusAccepted, job)
}

// handleListScans godoc
// @Summary List scan jobs
// @Tags scans
// @Produce json
// @Success 200 {array} app.Job
// @Router /scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	s.logger.Info("listed scans", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

// handleGetScan godoc
// @Summary Get a scan's status and SERP results
// @Tags scans
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Results
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id} [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.orchestrator.GetResults(r.Context(), id)
	if err != nil {
		s.fail(w, "getting scan results", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetOpportunities godoc
// @Summary List a scan's competitor and resource page opportunities
// @Tags scans
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} model.LinkOpportunity
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/opportunities [get]
func (s *Server) handleGetOpportunities(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opps, err := s.orchestrator.GetOpportunities(r.Context(), id)
	if err != nil {
		s.fail(w, "listing opportunities", err)
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

// handleCancelScan godoc
// @Summary Cancel a running scan
// @Tags scans
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /scans/{id} [delete]
func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orchestrator.CancelScan(r.Context(), id); err != nil {
		s.fail(w, "canceling scan", err)
		return
	}
	s.logger.Info("canceled scan", logging.Field{Key: "session_id", Value: id})
	w.WriteHeader(http.StatusNoContent)
}

// Competitors

// handleAnalyzeCompetitors godoc
// @Summary Analyze competitor backlink profiles
// @Tags competitors
// @Accept json
// @Produce json
// @Param request body AnalyzeCompetitorsRequest true "Domains and keywords"
// @Success 200 {object} competitor.Result
// @Failure 502 {object} ErrorResponse
// @Router /competitors/analyze [post]
func (s *Server) handleAnalyzeCompetitors(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeCompetitorsRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.orchestrator.AnalyzeCompetitors(r.Context(), body.Domains, body.Keywords)
	if err != nil {
		s.fail(w, "analyzing competitors", err)
		return
	}
	s.logger.Info("analyzed competitors",
		logging.Field{Key: "analyses", Value: len(res.Analyses)},
		logging.Field{Key: "failures", Value: len(res.Failures)})
	writeJSON(w, http.StatusOK, res)
}

// handleCompetitorHistory godoc
// @Summary List stored analyses of a competitor, newest first
// @Tags competitors
// @Produce json
// @Param domain path string true "Competitor domain"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} model.CompetitorAnalysis
// @Router /competitors/{domain}/history [get]
func (s *Server) handleCompetitorHistory(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	hist, err := s.orchestrator.CompetitorHistory(r.Context(), domain, limit)
	if err != nil {
		s.fail(w, "listing competitor history", err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// handleCompetitorChanges godoc
// @Summary Compare a competitor's two latest analyses
// @Tags competitors
// @Produce json
// @Param domain path string true "Competitor domain"
// @Success 200 {object} competitor.ProfileChange
// @Failure 404 {object} ErrorResponse
// @Router /competitors/{domain}/changes [get]
func (s *Server) handleCompetitorChanges(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	change, err := s.orchestrator.CompetitorChanges(r.Context(), domain)
	if err != nil {
		s.fail(w, "comparing competitor analyses", err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// Finders

// handleBrokenLinks godoc
// @Summary Find broken link opportunities on a domain
// @Tags opportunities
// @Accept json
// @Produce json
// @Param request body BrokenLinksRequest true "Domain and keywords"
// @Success 200 {array} model.LinkOpportunity
// @Failure 502 {object} ErrorResponse
// @Router /opportunities/broken-links [post]
func (s *Server) handleBrokenLinks(w http.ResponseWriter, r *http.Request) {
	var body BrokenLinksRequest
	if !decodeBody(w, r, &body) {
		return
	}
	opps, err := s.orchestrator.FindBrokenLinkOpportunities(r.Context(), body.Domain, body.Keywords)
	if err != nil {
		s.fail(w, "finding broken links", err)
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

// handleResourcePages godoc
// @Summary Find resource page opportunities for keywords
// @Tags opportunities
// @Accept json
// @Produce json
// @Param request body ResourcePagesRequest true "Keywords and filters"
// @Success 200 {array} model.LinkOpportunity
// @Failure 400 {object} ErrorResponse
// @Router /opportunities/resource-pages [post]
func (s *Server) handleResourcePages(w http.ResponseWriter, r *http.Request) {
	var body ResourcePagesRequest
	if !decodeBody(w, r, &body) {
		return
	}
	opps, err := s.orchestrator.FindResourcePageOpportunities(r.Context(), body.Keywords, body.Filters)
	if err != nil {
		s.fail(w, "finding resource pages", err)
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

// WebSockets

// handleScanWS streams a scan's events until the scan finishes. Closing the
// socket does not cancel the scan.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.orchestrator.GetJob(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("websocket client gone", logging.Field{Key: "session_id", Value: id}, logging.Err(err))
			return
		}
	}
}
