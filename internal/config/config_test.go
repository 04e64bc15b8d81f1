package config

import (
	"testing"

	"featurelab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.MaxConcurrentRuns)
	assert.Equal(t, "sqlite", cfg.Database.Driver())
	assert.Equal(t, ":memory:", cfg.Database.DSN())
	assert.Equal(t, 3, cfg.Pipeline.TSNEMaxComponents)
	assert.Equal(t, int64(0), cfg.Pipeline.Seed)
	assert.Equal(t, 100, cfg.Upload.MaxFeatures)
}

func TestLoadPostgresWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/featurelab?sslmode=disable")
	t.Setenv("SQLITE_PATH", "runs.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver())
	assert.Equal(t, "postgres://localhost/featurelab?sslmode=disable", cfg.Database.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TSNE_MAX_COMPONENTS", "0")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("TSNE_PERPLEXITY", "12.5")
	t.Setenv("MAX_CONCURRENT_RUNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Pipeline.TSNEMaxComponents)
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.InDelta(t, 12.5, cfg.Pipeline.TSNEPerplexity, 1e-9)
	assert.Equal(t, 4, cfg.Server.MaxConcurrentRuns, "unparseable values fall back to defaults")
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_RUNS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
