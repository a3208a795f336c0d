package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/search/filter"
	"github.com/kailas-cloud/neodex/internal/domain/search/request"
	"github.com/kailas-cloud/neodex/internal/render"
	healthuc "github.com/kailas-cloud/neodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/neodex/internal/usecase/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeRateLimited        = "rate_limited"
	CodeUnsupportedFeature = "unsupported_feature"
	CodeMalformedDate      = "malformed_date"
	CodeInvalidQuery       = "invalid_query"
	CodeNotFound           = "not_found"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeTimeout            = "timeout"
	CodeInternalError      = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatsResponse is the JSON body of GET /api/v1/stats.
type StatsResponse struct {
	Objects    int    `json:"objects"`
	Dates      int    `json:"dates"`
	Approaches int    `json:"approaches"`
	Version    string `json:"version"`
	Comparison string `json:"comparison"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CatalogStats exposes catalog size for the stats endpoint.
type CatalogStats interface {
	Len() int
	DateCount() int
	ApproachCount() int
	Version() string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the neodex HTTP API.
type Server struct {
	search        *searchuc.Service
	catalog       CatalogStats
	health        *healthuc.Service
	comparison    filter.Comparison
	maxLimit      int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog CatalogStats,
	health *healthuc.Service,
	comparison filter.Comparison,
	maxLimit int,
	logger *zap.Logger,
) *Server {
	if maxLimit <= 0 {
		maxLimit = domain.DefaultMaxLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:     search,
		catalog:    catalog,
		health:     health,
		comparison: comparison,
		maxLimit:   maxLimit,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedFeature, http.StatusBadRequest, CodeUnsupportedFeature),
		sentinelHandler(domain.ErrMalformedDate, http.StatusBadRequest, CodeMalformedDate),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrCatalogUnavailable, http.StatusServiceUnavailable, CodeCatalogUnavailable),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
	}
	return s
}

// searchParams are the bound query parameters of GET /api/v1/search.
type searchParams struct {
	Date         *string   `json:"date,omitempty"`
	StartDate    *string   `json:"start_date,omitempty"`
	EndDate      *string   `json:"end_date,omitempty"`
	Filter       *[]string `json:"filter,omitempty"`
	Number       *int      `json:"number,omitempty"`
	ReturnObject *string   `json:"return_object,omitempty"`
}

func bindSearchParams(q url.Values) (searchParams, error) {
	var p searchParams
	binds := []struct {
		name string
		dest any
	}{
		{"date", &p.Date},
		{"start_date", &p.StartDate},
		{"end_date", &p.EndDate},
		{"filter", &p.Filter},
		{"number", &p.Number},
		{"return_object", &p.ReturnObject},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return searchParams{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return p, nil
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	p, err := bindSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	params := request.Params{
		Date:         derefString(p.Date),
		StartDate:    derefString(p.StartDate),
		EndDate:      derefString(p.EndDate),
		ReturnObject: derefString(p.ReturnObject),
		Number:       domain.DefaultLimit,
	}
	if p.Filter != nil {
		params.Filters = *p.Filter
	}
	if p.Number != nil {
		params.Number = *p.Number
	}

	req, err := request.Build(params, s.comparison)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if req.Limit() > s.maxLimit {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery,
			fmt.Sprintf("number must be at most %d, got %d", s.maxLimit, req.Limit()))
		return
	}

	objs, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, render.NewResponse(req.Output(), objs))
}

// GetObject handles GET /api/v1/objects/{name}.
func (s *Server) GetObject(w http.ResponseWriter, r *http.Request) {
	name := gochi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	o, err := s.search.Lookup(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.NewObject(o))
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	if s.catalog == nil {
		s.handleDomainError(w, domain.ErrCatalogUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Objects:    s.catalog.Len(),
		Dates:      s.catalog.DateCount(),
		Approaches: s.catalog.ApproachCount(),
		Version:    s.catalog.Version(),
		Comparison: string(s.comparison),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// clientMessage returns an error message safe to show the client.
// Input errors carry their full text so callers can fix the query.
func clientMessage(err error) string {
	for _, s := range []error{
		domain.ErrUnsupportedFeature,
		domain.ErrMalformedDate,
		domain.ErrInvalidQuery,
		domain.ErrNotFound,
	} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	switch {
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return domain.ErrCatalogUnavailable.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "search timed out"
	default:
		return "internal error"
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := clientMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
