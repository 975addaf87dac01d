package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ggoodman/mcp-engine-go/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mcp-notes", cfg.ServerName)
	assert.Equal(t, "0.1.0", cfg.ServerVersion)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, 1000, cfg.MaxItems)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "mcp:notes:", cfg.KeyPrefix)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MCP_SERVER_NAME", "scratch")
	t.Setenv("MCP_PAGE_SIZE", "25")
	t.Setenv("MCP_LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "scratch", cfg.ServerName)
	assert.Equal(t, 25, cfg.PageSize)
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Setenv("MCP_PAGE_SIZE", "-1")
	_, err := loadConfig()
	assert.Error(t, err)

	_, err = Config{LogLevel: "loud"}.Level()
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(context.Background(), Config{Storage: "memory", MaxItems: 10})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, store)
	require.NoError(t, store.Close())

	_, err = openStore(context.Background(), Config{Storage: "etcd"})
	assert.ErrorContains(t, err, `unknown MCP_STORAGE "etcd"`)
}
