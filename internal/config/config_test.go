package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIURL(t *testing.T) {
	t.Setenv("PORTAL_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORTAL_API_URL")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORTAL_API_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 30*time.Second, cfg.PortalAPITimeout)
	assert.Equal(t, "file://migrations", cfg.MigrationsPath)
	assert.Empty(t, cfg.DatabaseURL, "audit database stays optional")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORTAL_API_URL", "https://api.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("PORTAL_API_TIMEOUT", "5s")
	t.Setenv("DATABASE_URL", "postgres://localhost/audit")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 5*time.Second, cfg.PortalAPITimeout)
	assert.Equal(t, "postgres://localhost/audit", cfg.DatabaseURL)
}
