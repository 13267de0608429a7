package enroll

import (
	"log/slog"

	"github.com/aretw0/enroll/pkg/adapters/carrier"
	"github.com/aretw0/enroll/pkg/adapters/mock"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/aretw0/enroll/pkg/registry"
)

// Provider types understood by DefaultFactories.
const (
	ProviderTypeMock    = "mock"
	ProviderTypeCarrier = "carrier"
)

// DefaultFactories builds the bundled provider types from providers.yaml entries.
func DefaultFactories(logger *slog.Logger) map[string]registry.Factory {
	return map[string]registry.Factory{
		ProviderTypeMock: func(cfg registry.ProviderConfig) (ports.Provider, error) {
			return mock.New(cfg.ID), nil
		},
		ProviderTypeCarrier: func(cfg registry.ProviderConfig) (ports.Provider, error) {
			return carrier.New(carrier.Config{
				ID:      cfg.ID,
				BaseURL: cfg.BaseURL,
				APIKey:  cfg.Key(),
				Timeout: cfg.Timeout,
			}, carrier.WithLogger(logger.With("provider", cfg.ID)))
		},
	}
}
