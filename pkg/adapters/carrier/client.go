package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/domain"
)

// DefaultTimeout bounds a single HTTP exchange when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// Config configures a carrier provider.
type Config struct {
	ID      string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Provider calls a carrier over HTTP.
type Provider struct {
	cfg    Config
	base   *url.URL
	client *http.Client
	logger *slog.Logger
}

// Option configures the carrier provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New validates cfg and creates the provider.
func New(cfg Config, opts ...Option) (*Provider, error) {
	if cfg.ID == "" {
		return nil, errors.New("carrier: id is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("carrier %q: invalid base_url %q", cfg.ID, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	p := &Provider{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) ID() string { return p.cfg.ID }

// do sends one request and decodes a 2xx JSON answer into out.
func (p *Provider) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &domain.ProviderError{ProviderID: p.cfg.ID, Op: op, Message: "cannot encode request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.base.String()+path, body)
	if err != nil {
		return &domain.ProviderError{ProviderID: p.cfg.ID, Op: op, Message: "cannot build request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	p.logger.Debug("sending request to carrier", "provider", p.cfg.ID, "op", op, "method", method, "path", path)

	resp, err := p.client.Do(req)
	if err != nil {
		return &domain.ProviderError{ProviderID: p.cfg.ID, Op: op, Message: "transport failure", Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &domain.ProviderError{ProviderID: p.cfg.ID, Op: op, Message: "cannot read response", StatusCode: resp.StatusCode, Retryable: true, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ProviderError{
			ProviderID: p.cfg.ID,
			Op:         op,
			Message:    errorMessage(data, resp.Status),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ProviderError{ProviderID: p.cfg.ID, Op: op, Message: "malformed response", StatusCode: resp.StatusCode, Cause: err}
	}
	return nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// errorMessage prefers a carrier supplied {"error": "..."} or {"message": "..."} body.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return status
}
