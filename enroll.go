package enroll

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/internal/runtime"
	"github.com/aretw0/enroll/pkg/adapters/memory"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/aretw0/enroll/pkg/registry"
	"github.com/aretw0/enroll/pkg/session"
)

// Engine is the high-level entry point of the library.
// It wraps the workflow runtime and owns the frozen catalog and provider registry.
type Engine struct {
	catalog   *catalog.Catalog
	providers *registry.Registry
	runtime   *runtime.Engine
	sessions  *session.Manager

	store       ports.WorkflowStore
	locker      ports.DistributedLocker
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
	runtimeOpts []runtime.EngineOption

	// quotes issued by GenerateQuote, keyed by quote id, until they expire.
	issuedMu sync.Mutex
	issued   map[string]domain.Quote
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore replaces the in-memory workflow store.
func WithStore(store ports.WorkflowStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes workflow access across replicas sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithRetryDelay sets the pause before the single retry of a retryable provider failure.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRetryDelay(d))
	}
}

// WithResumePolicy chooses where a resumed workflow re-enters.
func WithResumePolicy(p runtime.ResumePolicy) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithResumePolicy(p))
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// WithIDGenerator replaces the random id generator for workflows and quotes.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(newID))
	}
}

// New builds an engine and freezes cat and providers.
func New(cat *catalog.Catalog, providers *registry.Registry, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("enroll: catalog is required")
	}
	if providers == nil {
		return nil, errors.New("enroll: provider registry is required")
	}

	eng := &Engine{
		catalog:   cat,
		providers: providers,
		now:       time.Now,
		issued:    make(map[string]domain.Quote),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	cat.Freeze()
	providers.Freeze()

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(cat, providers, runtimeOpts...)

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.logger.Debug("engine ready", "products", cat.Len(), "providers", providers.IDs())
	return eng, nil
}

// Catalog returns the frozen product catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Providers returns the frozen provider registry.
func (e *Engine) Providers() *registry.Registry {
	return e.providers
}
