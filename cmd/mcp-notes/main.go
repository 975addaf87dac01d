// Command mcp-notes serves the notes example over stdin/stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ggoodman/mcp-engine-go/examples/notes"
	"github.com/ggoodman/mcp-engine-go/internal/logctx"
	"github.com/ggoodman/mcp-engine-go/mcp"
	"github.com/ggoodman/mcp-engine-go/mcpservice"
	"github.com/ggoodman/mcp-engine-go/stdio"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "mcp-notes:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(logctx.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	app, err := notes.New(store, log,
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: cfg.ServerName, Version: cfg.ServerVersion}),
		mcpservice.WithPageSize(cfg.PageSize),
	)
	if err != nil {
		return err
	}
	if err := app.Boot(ctx); err != nil {
		return err
	}

	log.InfoContext(ctx, "mcp_notes.start", slog.String("storage", cfg.Storage), slog.Int("page_size", cfg.PageSize))
	err = stdio.NewHandler(app, stdio.WithLogger(log)).Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
