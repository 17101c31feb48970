// Package cli assembles configured collaborators for the scribe commands.
// Commands stay thin: they parse flags, call these constructors and run.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/scribe/internal/adapters/file"
	redisstore "github.com/aretw0/scribe/internal/adapters/redis"
	"github.com/aretw0/scribe/internal/config"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/internal/service"
	"github.com/aretw0/scribe/pkg/adapters/duckduckgo"
	"github.com/aretw0/scribe/pkg/adapters/llm"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/observability"
	"github.com/aretw0/scribe/pkg/persistence/middleware"
	"github.com/aretw0/scribe/pkg/ports"
)

// pingTimeout bounds the startup connectivity check against Redis.
const pingTimeout = 5 * time.Second

// NewLogger builds the process logger from config. Both handlers write to
// stderr so stdout stays clean for documents and protocol traffic.
func NewLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

// NewGenerator builds the chat model adapter from config.
func NewGenerator(ctx context.Context, cfg config.Config) (ports.Generator, error) {
	gen, err := llm.New(ctx, llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing generator: %w", err)
	}
	return gen, nil
}

// NewSearcher builds the web search adapter from config.
func NewSearcher(cfg config.Config) ports.Searcher {
	opts := []duckduckgo.Option{
		duckduckgo.WithHTTPClient(&http.Client{Timeout: cfg.Search.Timeout}),
	}
	if cfg.Search.BaseURL != "" {
		opts = append(opts, duckduckgo.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.MaxResults > 0 {
		opts = append(opts, duckduckgo.WithMaxResults(cfg.Search.MaxResults))
	}
	return duckduckgo.New(opts...)
}

// NewStore selects the run store backend and wraps it in the configured
// persistence middleware. The returned closer releases the backend
// connection; for the memory store it is a no-op.
func NewStore(ctx context.Context, cfg config.Config) (ports.RunStore, func() error, error) {
	var (
		base   ports.RunStore
		closer = func() error { return nil }
	)

	// 1. Backend
	switch cfg.Store.Kind {
	case "redis":
		var opts []redisstore.Option
		if cfg.Store.TTL > 0 {
			opts = append(opts, redisstore.WithTTL(cfg.Store.TTL))
		}
		if cfg.Store.Prefix != "" {
			opts = append(opts, redisstore.WithPrefix(cfg.Store.Prefix))
		}
		rs := redisstore.New(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB, opts...)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("error reaching redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		base, closer = rs, rs.Close
	default:
		base = memory.NewStore()
	}

	// 2. Middleware. Redaction sits outside encryption so patterns are
	// masked before the record is sealed.
	var mws []middleware.Middleware
	if len(cfg.Store.RedactPatterns) > 0 {
		mws = append(mws, middleware.NewRedaction(cfg.Store.RedactPatterns))
	}
	if cfg.Store.EncryptionKey != "" {
		key, err := cfg.Store.EncryptionKeyBytes()
		if err != nil {
			_ = closer()
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: key}))
	}

	return middleware.Chain(base, mws...), closer, nil
}

// NewManager assembles the run manager with standard CLI conventions:
// generator and searcher from config, the configured store behind its
// middleware, and the file archive when enabled. The returned closer
// must be called after Manager.Shutdown.
func NewManager(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*service.Manager, func() error, error) {
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if metrics != nil {
		gen = metrics.InstrumentGenerator(gen)
	}

	store, closeStore, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	deps := service.Deps{
		Generator: gen,
		Searcher:  NewSearcher(cfg),
		Store:     store,
		Metrics:   metrics,
		Logger:    logger,
		Pipeline:  cfg.Pipeline,
	}
	if cfg.Archive.Enabled {
		deps.Archive = file.NewArchive(cfg.Archive.Dir)
	}

	mgr, err := service.NewManager(deps)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("error initializing manager: %w", err)
	}
	return mgr, closeStore, nil
}
