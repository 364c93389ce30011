package src

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATALAKE_BASE_URL", "https://api.example.org/")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.LogConfig.Level)
	assert.Equal(t, "json", config.LogConfig.Format)
	assert.Equal(t, "https://api.example.org/", config.DataLakeConfig.BaseURL)
	assert.Equal(t, 2*time.Minute, config.DataLakeConfig.Timeout)
	assert.Equal(t, 500, config.DataLakeConfig.BatchSize)
	assert.Equal(t, 4, config.DataLakeConfig.MaxConcurrency)
	assert.Empty(t, config.RedisURL)
	assert.Equal(t, 10*time.Minute, config.CacheConfig.TTL)
	assert.Equal(t, 24*time.Hour, config.StateTTL)
	assert.Equal(t, "exports", config.ExportConfig.Dir)
	assert.False(t, config.ExportConfig.Gzip)
	assert.Equal(t, "config.yaml", config.SchemaFile)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATALAKE_BASE_URL", "https://api.example.org")
	t.Setenv("DATALAKE_TOKEN", "secret")
	t.Setenv("DATALAKE_BATCH_SIZE", "50")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("EXPORT_DIR", "/tmp/out")
	t.Setenv("EXPORT_GZIP", "true")
	t.Setenv("SCHEMA_FILE", "schema.yaml")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", config.DataLakeConfig.Token)
	assert.Equal(t, 50, config.DataLakeConfig.BatchSize)
	assert.Equal(t, "debug", config.LogConfig.Level)
	assert.Equal(t, "console", config.LogConfig.Format)
	assert.Equal(t, "redis://localhost:6379/0", config.RedisURL)
	assert.Equal(t, 30*time.Second, config.CacheConfig.TTL)
	assert.Equal(t, "/tmp/out", config.ExportConfig.Dir)
	assert.True(t, config.ExportConfig.Gzip)
	assert.Equal(t, "schema.yaml", config.SchemaFile)
}

func TestLoadConfigWithoutBaseURL(t *testing.T) {
	t.Setenv("DATALAKE_BASE_URL", "unused")
	require.NoError(t, os.Unsetenv("DATALAKE_BASE_URL"))

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, config.DataLakeConfig.BaseURL)
}
