package config_test

import (
	"testing"
	"time"

	"github.com/aretw0/enroll/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "products", cfg.CatalogPath)
	assert.Equal(t, "providers.yaml", cfg.ProvidersPath)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "failed_step", cfg.ResumePolicy)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, int64(1<<20), cfg.MaxInputSize)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ENROLL_CATALOG", "/etc/enroll/products")
	t.Setenv("ENROLL_RETRY_DELAY", "2s")
	t.Setenv("ENROLL_RESUME_POLICY", "restart")
	t.Setenv("ENROLL_HTTP_PORT", "9090")
	t.Setenv("ENROLL_LOG_FORMAT", "json")
	t.Setenv("ENROLL_REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/enroll/products", cfg.CatalogPath)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, "restart", cfg.ResumePolicy)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("ENROLL_HTTP_PORT", "not-a-port")
	_, err := config.Load()
	assert.ErrorContains(t, err, "parse env:")
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := config.Config{
		ResumePolicy: "sometimes",
		LogLevel:     "loud",
		LogFormat:    "xml",
		HTTPPort:     70000,
		RetryDelay:   -time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"sometimes", "loud", "xml", "70000", "retry delay", "max input size"} {
		assert.ErrorContains(t, err, want)
	}
}
