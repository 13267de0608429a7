// Package http exposes the engine as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/enroll"
	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodySize caps request bodies.
const DefaultMaxBodySize = 1 << 20

// Engine is the part of enroll.Engine the API serves.
type Engine interface {
	Search(f catalog.Filter) []domain.ProductSummary
	Product(id string) (*domain.Product, error)
	CheckEligibility(ctx context.Context, productID string, consumer domain.Consumer) (domain.EligibilityResult, error)
	GenerateQuote(ctx context.Context, productID string, consumer domain.Consumer, req domain.QuoteRequest) (domain.Quote, error)
	CrossSell(productID string) ([]enroll.CrossSellOffer, error)
	InitiateEnrollment(ctx context.Context, consumer domain.Consumer, q domain.Quote, input domain.EnrollmentInput) (domain.Enrollment, error)
	EnrollmentStatus(ctx context.Context, providerID, enrollmentID string) (domain.EnrollmentStatus, error)

	StartWorkflow(ctx context.Context, workflowID string, consumer domain.Consumer, productID string) (*domain.WorkflowState, error)
	AdvanceWorkflow(ctx context.Context, workflowID string, consumer domain.Consumer, input domain.WorkflowInput) (*domain.WorkflowState, error)
	RunWorkflow(ctx context.Context, workflowID string, consumer domain.Consumer, input domain.WorkflowInput) (*domain.WorkflowState, error)
	ResumeWorkflow(ctx context.Context, workflowID string, restart bool) (*domain.WorkflowState, error)
	GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowState, error)
	ListWorkflows(ctx context.Context) ([]string, error)
	DeleteWorkflow(ctx context.Context, workflowID string) error

	Dispatch(ctx context.Context, req enroll.Request) (any, error)
}

// Server holds the handlers of the API.
type Server struct {
	Engine Engine

	logger  *slog.Logger
	maxBody int64
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxBodySize caps request bodies at n bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.SearchProducts)
		r.Get("/{productID}", s.GetProduct)
		r.Get("/{productID}/cross-sell", s.GetCrossSell)
	})
	r.Post("/eligibility", s.CheckEligibility)
	r.Post("/quotes", s.GenerateQuote)
	r.Post("/enrollments", s.InitiateEnrollment)
	r.Get("/providers/{providerID}/enrollments/{enrollmentID}", s.GetEnrollmentStatus)

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", s.ListWorkflows)
		r.Post("/", s.StartWorkflow)
		r.Get("/{workflowID}", s.GetWorkflow)
		r.Delete("/{workflowID}", s.DeleteWorkflow)
		r.Post("/{workflowID}/advance", s.AdvanceWorkflow)
		r.Post("/{workflowID}/run", s.RunWorkflow)
		r.Post("/{workflowID}/resume", s.ResumeWorkflow)
	})

	r.Post("/requests", s.Dispatch)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Request bodies.

type eligibilityRequest struct {
	ProductID string          `json:"product_id"`
	Consumer  domain.Consumer `json:"consumer"`
}

type quoteRequest struct {
	ProductID string              `json:"product_id"`
	Consumer  domain.Consumer     `json:"consumer"`
	Request   domain.QuoteRequest `json:"request"`
}

type enrollmentRequest struct {
	Consumer        domain.Consumer `json:"consumer"`
	Quote           domain.Quote    `json:"quote"`
	Acknowledgments []string        `json:"acknowledgments"`
	Data            map[string]any  `json:"data"`
}

type startWorkflowRequest struct {
	WorkflowID string          `json:"workflow_id"`
	ProductID  string          `json:"product_id"`
	Consumer   domain.Consumer `json:"consumer"`
}

type advanceWorkflowRequest struct {
	Consumer domain.Consumer      `json:"consumer"`
	Input    domain.WorkflowInput `json:"input"`
}

type resumeWorkflowRequest struct {
	Restart bool `json:"restart"`
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "enroll-http",
		"version": strings.TrimSpace(enroll.Version),
	})
}

// SearchProducts handles GET /products?category=&provider_id=&active_only=.
// active_only defaults to true.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Category:   domain.Category(q.Get("category")),
		ProviderID: q.Get("provider_id"),
		ActiveOnly: true,
	}
	if raw := q.Get("active_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, &domain.ValidationError{Field: "active_only", Reason: "must be a boolean", Value: raw})
			return
		}
		f.ActiveOnly = v
	}
	s.writeJSON(w, http.StatusOK, s.Engine.Search(f))
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.Product(chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) GetCrossSell(w http.ResponseWriter, r *http.Request) {
	offers, err := s.Engine.CrossSell(chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, offers)
}

func (s *Server) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var body eligibilityRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.Engine.CheckEligibility(r.Context(), body.ProductID, body.Consumer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) GenerateQuote(w http.ResponseWriter, r *http.Request) {
	var body quoteRequest
	if !s.decode(w, r, &body) {
		return
	}
	q, err := s.Engine.GenerateQuote(r.Context(), body.ProductID, body.Consumer, body.Request)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, q)
}

func (s *Server) InitiateEnrollment(w http.ResponseWriter, r *http.Request) {
	var body enrollmentRequest
	if !s.decode(w, r, &body) {
		return
	}
	enrollment, err := s.Engine.InitiateEnrollment(r.Context(), body.Consumer, body.Quote, domain.EnrollmentInput{
		Acknowledgments: body.Acknowledgments,
		Data:            body.Data,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, enrollment)
}

func (s *Server) GetEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Engine.EnrollmentStatus(r.Context(), chi.URLParam(r, "providerID"), chi.URLParam(r, "enrollmentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.ListWorkflows(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	var body startWorkflowRequest
	if !s.decode(w, r, &body) {
		return
	}
	state, err := s.Engine.StartWorkflow(r.Context(), body.WorkflowID, body.Consumer, body.ProductID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/workflows/"+state.WorkflowID)
	s.writeJSON(w, http.StatusCreated, state)
}

func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	state, err := s.Engine.GetWorkflow(r.Context(), chi.URLParam(r, "workflowID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteWorkflow(r.Context(), chi.URLParam(r, "workflowID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdvanceWorkflow(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, s.Engine.AdvanceWorkflow)
}

func (s *Server) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, s.Engine.RunWorkflow)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, domain.Consumer, domain.WorkflowInput) (*domain.WorkflowState, error)) {
	var body advanceWorkflowRequest
	if !s.decode(w, r, &body) {
		return
	}
	state, err := fn(r.Context(), chi.URLParam(r, "workflowID"), body.Consumer, body.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) ResumeWorkflow(w http.ResponseWriter, r *http.Request) {
	var body resumeWorkflowRequest
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}
	state, err := s.Engine.ResumeWorkflow(r.Context(), chi.URLParam(r, "workflowID"), body.Restart)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// Dispatch handles POST /requests with an enroll.Request body.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body enroll.Request
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.Engine.Dispatch(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Kind:  "validation",
			})
			return false
		}
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: domain.ErrorKind(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StatusFor maps the error taxonomy to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWorkflow):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIneligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
