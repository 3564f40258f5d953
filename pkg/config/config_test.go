package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)

	require.Equal(t, "openai", cfg.AI.Provider)
	require.True(t, cfg.AI.Enabled)
	require.Equal(t, 10, cfg.AI.BatchSize)
	require.Equal(t, 30, cfg.AI.TimeoutSec)

	require.Equal(t, 0.6, cfg.Recommender.SimilarityWeight)
	require.Equal(t, 0.4, cfg.Recommender.AIWeight)

	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	require.Equal(t, 1000, cfg.RateLimit.RequestsPerHour)

	require.False(t, cfg.Redis.Enabled)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("AI_RECOMMENDER_AI_PROVIDER", "ollama")
	t.Setenv("AI_RECOMMENDER_SQLITE_PATH", "/tmp/override.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "ollama", cfg.AI.Provider)
	require.Equal(t, "/tmp/override.db", cfg.SQLite.Path)
}
