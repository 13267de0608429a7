package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	exampleCatalog   = "../../examples/catalog/products"
	exampleProviders = "../../examples/catalog/providers.yaml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENROLL_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "enroll version dev\n", out)
}

func TestValidate_Examples(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", exampleCatalog, "--providers", exampleProviders)
	require.NoError(t, err, out)
	assert.Contains(t, out, "6 products, 2 providers")
	assert.Contains(t, out, "Definitions are valid!")
}

func TestValidate_ReportsProblems(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("products:\n  - id: bad\n    category: spaceflight\n"), 0o600))

	out, err := execute(t, "validate", "--catalog", broken, "--providers", filepath.Join(dir, "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, `invalid product "bad"`)
	assert.Contains(t, out, "0 products, 1 providers")
}

func TestProducts_JSON(t *testing.T) {
	out, err := execute(t, "products", "--catalog", exampleCatalog, "--providers", exampleProviders, "--category", "vision", "--all", "--json")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"id": "vision-care"`)
	assert.Contains(t, out, `"id": "vision-legacy"`)
	assert.NotContains(t, out, "health-basic")
}

func TestRequest_Quote(t *testing.T) {
	out, err := execute(t, "request", "../../examples/requests/quote.json", "--catalog", exampleCatalog, "--providers", exampleProviders)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"monthly_premium": 190`)
	assert.Contains(t, out, `"coverage_amount": 250000`)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	_, err := execute(t, "validate", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
