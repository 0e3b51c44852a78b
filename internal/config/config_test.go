package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://localhost:8090", cfg.APIBaseURL)
	require.Equal(t, 5*time.Minute, cfg.RefreshBuffer)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.NotEmpty(t, cfg.StateFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LIGA_API_BASE_URL", "https://liga.example.com")
	t.Setenv("LIGA_REFRESH_BUFFER", "90s")
	t.Setenv("LIGA_STATE_FILE", "/tmp/liga-tokens.db")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://liga.example.com", cfg.APIBaseURL)
	require.Equal(t, 90*time.Second, cfg.RefreshBuffer)
	require.Equal(t, "/tmp/liga-tokens.db", cfg.StateFile)
}

func TestLoadRejectsNonPositiveBuffer(t *testing.T) {
	t.Setenv("LIGA_REFRESH_BUFFER", "0s")

	_, err := Load()
	require.Error(t, err)
}
