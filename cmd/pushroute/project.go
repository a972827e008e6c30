package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/vango-dev/pushroute/internal/config"
	"github.com/vango-dev/pushroute/pkg/site"
)

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// loadSite loads the project file and resolves every route's content.
func loadSite(ctx context.Context, path string, logger *slog.Logger) (*config.Config, *site.Site, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := cfg.Site(ctx, cfg.Loader(logger))
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
