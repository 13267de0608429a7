// Package cli wires configuration, catalog, providers and observability into an engine.
package cli

import (
	"errors"
	"log/slog"

	"github.com/aretw0/enroll"
	"github.com/aretw0/enroll/internal/config"
	"github.com/aretw0/enroll/internal/runtime"
	"github.com/aretw0/enroll/pkg/adapters/mock"
	"github.com/aretw0/enroll/pkg/adapters/redis"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/observability"
	"github.com/aretw0/enroll/pkg/registry"
	backend "github.com/redis/go-redis/v9"
)

// DefaultProviderID is registered when no provider file is found.
const DefaultProviderID = "mock"

// Stack is a ready engine with the pieces the commands expose.
type Stack struct {
	Engine  *enroll.Engine
	Metrics *observability.Metrics
	Logger  *slog.Logger

	// Problems lists the products and providers that were rejected while loading.
	// The engine serves everything else.
	Problems error

	closers []func() error
}

// Close releases external connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// LoadDefinitions reads the catalog and provider files. Bad entries are returned as an
// AggregateError next to the usable catalog and registry.
func LoadDefinitions(cfg config.Config, logger *slog.Logger) (*catalog.Catalog, *registry.Registry, error) {
	cat := catalog.New(catalog.WithLogger(logger))
	errs := domain.Errors(cat.Load(catalog.PathSource(cfg.CatalogPath)))

	providers := registry.NewRegistry()
	cfgs, err := registry.LoadConfig(cfg.ProvidersPath)
	errs = append(errs, domain.Errors(err)...)
	errs = append(errs, domain.Errors(registry.Build(providers, cfgs, enroll.DefaultFactories(logger)))...)

	if len(cfgs) == 0 && err == nil {
		logger.Info("no provider configuration found, using the mock provider", "path", cfg.ProvidersPath)
		providers.MustRegister(mock.New(DefaultProviderID))
	}

	for _, p := range cat.Search(catalog.Filter{}) {
		if _, err := providers.Resolve(p.ProviderID); err != nil {
			logger.Warn("product references an unknown provider", "product", p.ID, "provider", p.ProviderID)
		}
	}

	return cat, providers, domain.Aggregate(errs)
}

// Build creates the engine described by cfg.
func Build(cfg config.Config, logger *slog.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := runtime.ParseResumePolicy(cfg.ResumePolicy)

	cat, providers, problems := LoadDefinitions(cfg, logger)

	stack := &Stack{
		Metrics:  observability.NewMetrics(cfg.MetricsNamespace),
		Logger:   logger,
		Problems: problems,
	}

	opts := []enroll.Option{
		enroll.WithLogger(logger),
		enroll.WithLifecycleHooks(observability.Combine(stack.Metrics.Hooks(), observability.LogHooks(logger))),
		enroll.WithRetryDelay(cfg.RetryDelay),
		enroll.WithResumePolicy(policy),
	}

	if cfg.RedisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: cfg.RedisAddr})
		stack.closers = append(stack.closers, client.Close)
		opts = append(opts, enroll.WithLocker(redis.NewLocker(client, "enroll:")))
		logger.Info("distributed workflow locking enabled", "redis", cfg.RedisAddr)
	}

	eng, err := enroll.New(cat, providers, opts...)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	stack.Engine = eng
	return stack, nil
}
