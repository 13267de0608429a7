package catalog

import (
	"log/slog"
	"sync"

	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/domain"
)

// Catalog owns the product definitions.
// It is populated at startup, frozen, and then read concurrently.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	order    []string
	frozen   bool
	logger   *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger configures the logger used for load and cross-sell warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// Filter narrows Search results. Zero fields match everything.
type Filter struct {
	Category   domain.Category `json:"category,omitempty" mapstructure:"category"`
	ProviderID string          `json:"provider_id,omitempty" mapstructure:"provider_id"`
	ActiveOnly bool            `json:"active_only" mapstructure:"active_only"`
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		products: make(map[string]*domain.Product),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load decodes, validates and registers every document of src.
// Each product is isolated: a bad or duplicate definition is reported in the
// returned AggregateError and the remaining products are still registered.
func (c *Catalog) Load(src Source) error {
	docs, srcErr := src.Documents()
	errs := domain.Errors(srcErr)

	loaded := 0
	for _, doc := range docs {
		p, err := Decode(doc.Data)
		if err == nil {
			err = c.Register(p)
		}
		if err != nil {
			c.logger.Warn("product rejected", "origin", doc.Origin, "err", err)
			errs = append(errs, err)
			continue
		}
		loaded++
	}

	c.logger.Info("catalog loaded", "products", loaded, "rejected", len(errs))
	return domain.Aggregate(errs)
}

// Register validates and adds a product. Duplicate ids are rejected.
func (c *Catalog) Register(p domain.Product) error {
	p = p.Clone()
	Normalize(&p)
	if err := Validate(p); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return &domain.ConfigurationError{Subject: "product", ID: p.ID, Reason: "catalog is frozen"}
	}
	if _, exists := c.products[p.ID]; exists {
		return &domain.ConfigurationError{Subject: "product", ID: p.ID, Reason: "duplicate product id"}
	}

	c.products[p.ID] = &p
	c.order = append(c.order, p.ID)
	return nil
}

// Freeze forbids further registration. Only SetActive may change a frozen catalog.
func (c *Catalog) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Frozen reports whether Freeze was called.
func (c *Catalog) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Get returns a copy of the product with the given id.
func (c *Catalog) Get(id string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "product", ID: id}
	}
	cp := p.Clone()
	return &cp, nil
}

// Search returns the matching products in load order.
func (c *Catalog) Search(f Filter) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []domain.Product{}
	for _, id := range c.order {
		p := c.products[id]
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.ProviderID != "" && p.ProviderID != f.ProviderID {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// Len returns the number of registered products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// CrossSellFor resolves the cross-sell links of a product.
// Unknown, inactive and self references are dropped with a warning.
func (c *Catalog) CrossSellFor(id string) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "product", ID: id}
	}

	out := []domain.Product{}
	for _, ref := range p.CrossSellProducts {
		target, ok := c.products[ref]
		switch {
		case !ok:
			c.logger.Warn("dangling cross-sell reference", "product", id, "ref", ref)
		case ref == id:
			c.logger.Warn("product cross-sells itself", "product", id)
		case !target.Active:
			c.logger.Debug("skipping inactive cross-sell product", "product", id, "ref", ref)
		default:
			out = append(out, target.Clone())
		}
	}
	return out, nil
}

// SetActive toggles a product's availability.
func (c *Catalog) SetActive(id string, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return &domain.NotFoundError{Kind: "product", ID: id}
	}
	// Replace rather than mutate so copies handed out earlier stay consistent.
	cp := *p
	cp.Active = active
	c.products[id] = &cp
	return nil
}
