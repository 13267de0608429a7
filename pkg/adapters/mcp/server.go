// Package mcp exposes the engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/enroll"
	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	catalogURI       = "enroll://catalog"
	productURIPrefix = "enroll://products/"
)

// Engine defines what the MCP server needs from the enrollment engine.
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
}

// Tool arguments.

type SearchArgs struct {
	Category   string `json:"category,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
	ActiveOnly *bool  `json:"active_only,omitempty"`
}

type ProductArgs struct {
	ProductID string `json:"product_id"`
}

type EligibilityArgs struct {
	ProductID string          `json:"product_id"`
	Consumer  domain.Consumer `json:"consumer"`
}

type QuoteArgs struct {
	ProductID      string            `json:"product_id"`
	Consumer       domain.Consumer   `json:"consumer"`
	CoverageAmount float64           `json:"coverage_amount,omitempty"`
	Dependents     int               `json:"dependents,omitempty"`
	EffectiveDate  *time.Time        `json:"effective_date,omitempty"`
	Options        map[string]string `json:"options,omitempty"`
}

type EnrollmentArgs struct {
	Consumer        domain.Consumer `json:"consumer"`
	Quote           domain.Quote    `json:"quote"`
	Acknowledgments []string        `json:"acknowledgments,omitempty"`
	Data            map[string]any  `json:"data,omitempty"`
}

type StatusArgs struct {
	ProviderID   string `json:"provider_id"`
	EnrollmentID string `json:"enrollment_id"`
}

type StartWorkflowArgs struct {
	WorkflowID string          `json:"workflow_id,omitempty"`
	ProductID  string          `json:"product_id"`
	Consumer   domain.Consumer `json:"consumer"`
}

type AdvanceWorkflowArgs struct {
	WorkflowID string               `json:"workflow_id"`
	Consumer   domain.Consumer      `json:"consumer"`
	Input      domain.WorkflowInput `json:"input"`
	// Run advances until the workflow completes or fails.
	Run bool `json:"run,omitempty"`
}

type ResumeWorkflowArgs struct {
	WorkflowID string `json:"workflow_id"`
	Restart    bool   `json:"restart,omitempty"`
}

type WorkflowArgs struct {
	WorkflowID string `json:"workflow_id"`
}

// Tool results. MCP structured output must be an object, so lists are wrapped.

type ProductList struct {
	Products []domain.ProductSummary `json:"products"`
}

type CrossSellList struct {
	Offers []enroll.CrossSellOffer `json:"offers"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("enroll-mcp", strings.TrimSpace(enroll.Version), server.WithToolCapabilities(false), server.WithResourceCapabilities(false, false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	consumer := mcp.WithObject("consumer", mcp.Required(),
		mcp.Description("Consumer identity (id, first_name, last_name, email, phone) and profile attributes"))

	s.mcpServer.AddTool(mcp.NewTool("search_products",
		mcp.WithDescription("List catalog products, optionally filtered by category or provider."),
		mcp.WithString("category", mcp.Description("One of health, dental, vision, life, disability, medicare, ancillary")),
		mcp.WithString("provider_id", mcp.Description("Only products served by this provider")),
		mcp.WithBoolean("active_only", mcp.Description("Skip inactive products (default true)")),
		mcp.WithOutputSchema[ProductList](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	s.mcpServer.AddTool(mcp.NewTool("get_product",
		mcp.WithDescription("Get the full definition of a product."),
		mcp.WithString("product_id", mcp.Required()),
	), mcp.NewStructuredToolHandler(s.handleProduct))

	s.mcpServer.AddTool(mcp.NewTool("check_eligibility",
		mcp.WithDescription("Check whether a consumer qualifies for a product."),
		mcp.WithString("product_id", mcp.Required()),
		consumer,
		mcp.WithOutputSchema[domain.EligibilityResult](),
	), mcp.NewStructuredToolHandler(s.handleEligibility))

	s.mcpServer.AddTool(mcp.NewTool("generate_quote",
		mcp.WithDescription("Price a product for a consumer."),
		mcp.WithString("product_id", mcp.Required()),
		consumer,
		mcp.WithNumber("coverage_amount", mcp.Description("Coverage amount; a default applies when omitted")),
		mcp.WithNumber("dependents", mcp.Description("Number of dependents")),
		mcp.WithString("effective_date", mcp.Description("RFC 3339 start of coverage")),
		mcp.WithOutputSchema[domain.Quote](),
	), mcp.NewStructuredToolHandler(s.handleQuote))

	s.mcpServer.AddTool(mcp.NewTool("get_cross_sell",
		mcp.WithDescription("Suggest active products commonly paired with a product."),
		mcp.WithString("product_id", mcp.Required()),
		mcp.WithOutputSchema[CrossSellList](),
	), mcp.NewStructuredToolHandler(s.handleCrossSell))

	s.mcpServer.AddTool(mcp.NewTool("initiate_enrollment",
		mcp.WithDescription("Accept a quote and enroll the consumer with the provider."),
		consumer,
		mcp.WithObject("quote", mcp.Required(), mcp.Description("A quote returned by generate_quote")),
		mcp.WithArray("acknowledgments", mcp.WithStringItems(), mcp.Description("Titles or types of acknowledged disclaimers")),
		mcp.WithObject("data", mcp.Description("Values for the product's required enrollment fields")),
		mcp.WithOutputSchema[domain.Enrollment](),
	), mcp.NewStructuredToolHandler(s.handleEnrollment))

	s.mcpServer.AddTool(mcp.NewTool("get_enrollment_status",
		mcp.WithDescription("Get the status of an enrollment held by a provider."),
		mcp.WithString("provider_id", mcp.Required()),
		mcp.WithString("enrollment_id", mcp.Required()),
		mcp.WithOutputSchema[domain.EnrollmentStatus](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("start_workflow",
		mcp.WithDescription("Start an enrollment workflow. An id is generated when workflow_id is omitted."),
		mcp.WithString("workflow_id"),
		mcp.WithString("product_id", mcp.Required()),
		consumer,
	), mcp.NewStructuredToolHandler(s.handleStartWorkflow))

	s.mcpServer.AddTool(mcp.NewTool("advance_workflow",
		mcp.WithDescription("Execute the next workflow step, or every remaining step when run is true."),
		mcp.WithString("workflow_id", mcp.Required()),
		consumer,
		mcp.WithObject("input", mcp.Description("quote request and enrollment input used by the matching steps")),
		mcp.WithBoolean("run", mcp.Description("Advance until completed or failed")),
	), mcp.NewStructuredToolHandler(s.handleAdvanceWorkflow))

	s.mcpServer.AddTool(mcp.NewTool("resume_workflow",
		mcp.WithDescription("Resume a failed workflow at its failed step, or from the start when restart is true."),
		mcp.WithString("workflow_id", mcp.Required()),
		mcp.WithBoolean("restart"),
	), mcp.NewStructuredToolHandler(s.handleResumeWorkflow))

	s.mcpServer.AddTool(mcp.NewTool("get_workflow",
		mcp.WithDescription("Get the current state of a workflow."),
		mcp.WithString("workflow_id", mcp.Required()),
	), mcp.NewStructuredToolHandler(s.handleGetWorkflow))
}

func (s *Server) handleSearch(ctx context.Context, _ mcp.CallToolRequest, args SearchArgs) (ProductList, error) {
	f := catalog.Filter{
		Category:   domain.Category(args.Category),
		ProviderID: args.ProviderID,
		ActiveOnly: true,
	}
	if args.ActiveOnly != nil {
		f.ActiveOnly = *args.ActiveOnly
	}
	products := s.engine.Search(f)
	if products == nil {
		products = []domain.ProductSummary{}
	}
	return ProductList{Products: products}, nil
}

func (s *Server) handleProduct(ctx context.Context, _ mcp.CallToolRequest, args ProductArgs) (*domain.Product, error) {
	p, err := s.engine.Product(args.ProductID)
	return p, s.toolError("get_product", err)
}

func (s *Server) handleEligibility(ctx context.Context, _ mcp.CallToolRequest, args EligibilityArgs) (domain.EligibilityResult, error) {
	res, err := s.engine.CheckEligibility(ctx, args.ProductID, args.Consumer)
	return res, s.toolError("check_eligibility", err)
}

func (s *Server) handleQuote(ctx context.Context, _ mcp.CallToolRequest, args QuoteArgs) (domain.Quote, error) {
	q, err := s.engine.GenerateQuote(ctx, args.ProductID, args.Consumer, domain.QuoteRequest{
		CoverageAmount: args.CoverageAmount,
		Dependents:     args.Dependents,
		EffectiveDate:  args.EffectiveDate,
		Options:        args.Options,
	})
	return q, s.toolError("generate_quote", err)
}

func (s *Server) handleCrossSell(ctx context.Context, _ mcp.CallToolRequest, args ProductArgs) (CrossSellList, error) {
	offers, err := s.engine.CrossSell(args.ProductID)
	if err != nil {
		return CrossSellList{}, s.toolError("get_cross_sell", err)
	}
	if offers == nil {
		offers = []enroll.CrossSellOffer{}
	}
	return CrossSellList{Offers: offers}, nil
}

func (s *Server) handleEnrollment(ctx context.Context, _ mcp.CallToolRequest, args EnrollmentArgs) (domain.Enrollment, error) {
	e, err := s.engine.InitiateEnrollment(ctx, args.Consumer, args.Quote, domain.EnrollmentInput{
		Acknowledgments: args.Acknowledgments,
		Data:            args.Data,
	})
	return e, s.toolError("initiate_enrollment", err)
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest, args StatusArgs) (domain.EnrollmentStatus, error) {
	st, err := s.engine.EnrollmentStatus(ctx, args.ProviderID, args.EnrollmentID)
	return st, s.toolError("get_enrollment_status", err)
}

func (s *Server) handleStartWorkflow(ctx context.Context, _ mcp.CallToolRequest, args StartWorkflowArgs) (*domain.WorkflowState, error) {
	state, err := s.engine.StartWorkflow(ctx, args.WorkflowID, args.Consumer, args.ProductID)
	return state, s.toolError("start_workflow", err)
}

func (s *Server) handleAdvanceWorkflow(ctx context.Context, _ mcp.CallToolRequest, args AdvanceWorkflowArgs) (*domain.WorkflowState, error) {
	advance := s.engine.AdvanceWorkflow
	if args.Run {
		advance = s.engine.RunWorkflow
	}
	state, err := advance(ctx, args.WorkflowID, args.Consumer, args.Input)
	return state, s.toolError("advance_workflow", err)
}

func (s *Server) handleResumeWorkflow(ctx context.Context, _ mcp.CallToolRequest, args ResumeWorkflowArgs) (*domain.WorkflowState, error) {
	state, err := s.engine.ResumeWorkflow(ctx, args.WorkflowID, args.Restart)
	return state, s.toolError("resume_workflow", err)
}

func (s *Server) handleGetWorkflow(ctx context.Context, _ mcp.CallToolRequest, args WorkflowArgs) (*domain.WorkflowState, error) {
	state, err := s.engine.GetWorkflow(ctx, args.WorkflowID)
	return state, s.toolError("get_workflow", err)
}

// toolError prefixes err with its kind so agents can branch on it.
func (s *Server) toolError(tool string, err error) error {
	if err == nil {
		return nil
	}
	kind := domain.ErrorKind(err)
	if kind == "internal" || kind == "provider" {
		s.logger.Error("MCP tool failed", "tool", tool, "err", err)
	}
	return fmt.Errorf("%s: %w", kind, err)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(catalogURI, "Product Catalog",
		mcp.WithResourceDescription("Every product in the catalog, inactive ones included"),
		mcp.WithMIMEType("application/json"),
	), s.readCatalog)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(productURIPrefix+"{id}", "Product Definition",
		mcp.WithTemplateMIMEType("application/json"),
	), s.readProduct)
}

func (s *Server) readCatalog(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(catalogURI, s.engine.Search(catalog.Filter{}))
}

func (s *Server) readProduct(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	p, err := s.engine.Product(strings.TrimPrefix(uri, productURIPrefix))
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, p)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
