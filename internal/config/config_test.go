package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 168*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, time.Duration(0), cfg.Relationship.RerequestCooldown)
	assert.Equal(t, 3*time.Second, cfg.Client.PollInterval)
	assert.Equal(t, "memory", cfg.Client.Cache)
	assert.Equal(t, "localhost:6379", cfg.Client.Redis.Address)

	assert.Error(t, cfg.Validate(), "secret is required")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("REREQUEST_COOLDOWN", "10m")
	t.Setenv("POLL_INTERVAL", "2s")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Relationship.RerequestCooldown)
	assert.Equal(t, 2*time.Second, cfg.Client.PollInterval)
	assert.NoError(t, cfg.Validate())
}
