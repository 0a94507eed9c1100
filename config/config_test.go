package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DBNAME", "agrimarket_test")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "agrimarket_test", cfg.Mongo.DBName)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, "*/10 * * * *", cfg.Jobs.ExpirySchedule)
	assert.Equal(t, 48, cfg.Jobs.RequestTTLHours)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JOBS_REQUEST_TTL_HOURS", "24")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 24, cfg.Jobs.RequestTTLHours)
}
