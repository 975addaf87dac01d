package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ggoodman/mcp-engine-go/storage"
	"github.com/ggoodman/mcp-engine-go/storage/memory"
	redisstore "github.com/ggoodman/mcp-engine-go/storage/redis"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config is read from the environment.
type Config struct {
	// ServerName is reported to clients. ENV: MCP_SERVER_NAME
	ServerName string `env:"MCP_SERVER_NAME,default=mcp-notes"`
	// ServerVersion is reported to clients. ENV: MCP_SERVER_VERSION
	ServerVersion string `env:"MCP_SERVER_VERSION,default=0.1.0"`
	// PageSize bounds list responses; 0 lists everything. ENV: MCP_PAGE_SIZE
	PageSize int `env:"MCP_PAGE_SIZE,default=0"`
	// LogLevel is one of debug, info, warn, error. ENV: MCP_LOG_LEVEL
	LogLevel string `env:"MCP_LOG_LEVEL,default=info"`
	// Storage selects the note store: memory or redis. ENV: MCP_STORAGE
	Storage string `env:"MCP_STORAGE,default=memory"`
	// MaxItems bounds the memory store. ENV: MCP_STORAGE_MAX_ITEMS
	MaxItems int `env:"MCP_STORAGE_MAX_ITEMS,default=1000"`
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all redis keys. ENV: MCP_STORAGE_PREFIX
	KeyPrefix string `env:"MCP_STORAGE_PREFIX,default=mcp:notes:"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.PageSize < 0 {
		return Config{}, fmt.Errorf("config: MCP_PAGE_SIZE must not be negative, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: MCP_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func openStore(ctx context.Context, cfg Config) (storage.Storage, error) {
	switch strings.ToLower(cfg.Storage) {
	case "", "memory":
		store, err := memory.New(cfg.MaxItems)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		cl := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cl.Ping(ctx).Err(); err != nil {
			_ = cl.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		store, err := redisstore.New(redisstore.Config{Client: cl, KeyPrefix: cfg.KeyPrefix})
		if err != nil {
			_ = cl.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("config: unknown MCP_STORAGE %q", cfg.Storage)
	}
}
