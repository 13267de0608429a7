package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/aretw0/enroll/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ id string }

func (s stubProvider) ID() string { return s.id }
func (s stubProvider) CheckEligibility(ctx context.Context, p domain.Product, c domain.Consumer) (domain.EligibilityResult, error) {
	return domain.EligibilityResult{Eligible: true}, nil
}
func (s stubProvider) GetQuote(ctx context.Context, p domain.Product, c domain.Consumer, r domain.QuoteRequest) (domain.ProviderQuote, error) {
	return domain.ProviderQuote{MonthlyPremium: 1}, nil
}
func (s stubProvider) InitiateEnrollment(ctx context.Context, q domain.Quote, c domain.Consumer, data map[string]any) (domain.Enrollment, error) {
	return domain.Enrollment{EnrollmentID: "e"}, nil
}
func (s stubProvider) GetEnrollmentStatus(ctx context.Context, id string) (domain.EnrollmentStatus, error) {
	return domain.EnrollmentStatus{}, &domain.NotFoundError{Kind: "enrollment", ID: id}
}

func TestRegistry_RegisterResolve(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(stubProvider{id: "b"}))
	require.NoError(t, r.Register(stubProvider{id: "a"}))

	err := r.Register(stubProvider{id: "a"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	p, err := r.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID())

	_, err = r.Resolve("zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{"a", "b"}, r.IDs())

	assert.ErrorIs(t, r.Register(stubProvider{}), domain.ErrConfiguration)
}

func TestRegistry_Freeze(t *testing.T) {
	r := registry.NewRegistry()
	r.Freeze()
	assert.ErrorIs(t, r.Register(stubProvider{id: "late"}), domain.ErrConfiguration)
	assert.Panics(t, func() { r.MustRegister(stubProvider{id: "late"}) })
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "providers.yaml", `
providers:
  - id: mock
    type: mock
  - id: acme
    type: carrier
    base_url: https://carrier.example
    api_key_env: ACME_KEY
    timeout: 2s
  - id: typo
    type: carrier
    base_ulr: nope
`)
	t.Setenv("ACME_KEY", "secret")

	cfgs, err := registry.LoadConfig(path)
	require.Len(t, domain.Errors(err), 1, "the misspelled entry is reported")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	require.Len(t, cfgs, 2)
	assert.Equal(t, "mock", cfgs[0].Type)
	assert.Equal(t, 2*time.Second, cfgs[1].Timeout)
	assert.Equal(t, "secret", cfgs[1].Key())
}

func TestLoadConfig_JSONAndMissing(t *testing.T) {
	path := writeFile(t, "providers.json", `[{"id": "mock", "type": "mock", "timeout": "500ms"}]`)
	cfgs, err := registry.LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, 500*time.Millisecond, cfgs[0].Timeout)

	cfgs, err = registry.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfgs)
}

func TestBuild_IsolatesFailures(t *testing.T) {
	factories := map[string]registry.Factory{
		"stub": func(cfg registry.ProviderConfig) (ports.Provider, error) {
			return stubProvider{id: cfg.ID}, nil
		},
	}
	cfgs := []registry.ProviderConfig{
		{ID: "one", Type: "stub"},
		{ID: "two", Type: "unknown"},
		{ID: "one", Type: "stub"},
		{Type: "stub"},
		{ID: "three", Type: "stub"},
	}

	r := registry.NewRegistry()
	err := registry.Build(r, cfgs, factories)
	assert.Len(t, domain.Errors(err), 3)
	assert.Equal(t, []string{"one", "three"}, r.IDs())
}
