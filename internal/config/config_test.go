package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20*time.Second, cfg.ArtifactTimeout)
	assert.Equal(t, "EU", cfg.Region)
	assert.True(t, cfg.Redact)
	assert.Equal(t, 5.0, cfg.Scoring.High)
	assert.Equal(t, 365, cfg.Scoring.StorageLimitDays)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MaxArtifactBytes, cfg.MaxArtifactBytes)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdpr-scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root_path: ./repo
workers: 3
artifact_timeout: 5s
region: NL
redact: false
rules:
  files: [rules/custom.yaml]
  literals: [Projekt Tulp]
  gitleaks: true
scoring:
  high: 10
  storage_limit_days: 30
retry:
  max_attempts: 5
  initial_interval: 10ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./repo", cfg.RootPath)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.ArtifactTimeout)
	assert.Equal(t, "NL", cfg.Region)
	assert.False(t, cfg.Redact)
	assert.Equal(t, []string{"rules/custom.yaml"}, cfg.Rules.Files)
	assert.Equal(t, []string{"Projekt Tulp"}, cfg.Rules.Literals)
	assert.True(t, cfg.Rules.Gitleaks)
	assert.Equal(t, 10.0, cfg.Scoring.High)
	assert.Equal(t, 2.0, cfg.Scoring.Medium, "unset keys keep their defaults")
	assert.Equal(t, 30, cfg.Scoring.StorageLimitDays)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.InitialInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GDPRSCAN_WORKERS", "7")
	t.Setenv("GDPRSCAN_REGION", "DE")
	t.Setenv("GDPRSCAN_SCORING_LOW", "1.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "DE", cfg.Region)
	assert.Equal(t, 1.5, cfg.Scoring.Low)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 0\nmin_confidence: 2\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "min_confidence")
}
