package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/internal/config"
	"github.com/conneroisu/tilde/internal/logging"
	"github.com/conneroisu/tilde/internal/observability"
	"github.com/conneroisu/tilde/internal/store"
	"github.com/conneroisu/tilde/pkg/tilde"
)

// env is what a command needs to load and render templates.
type env struct {
	cfg      *config.Config
	logger   *logging.TildeLogger
	cache    *tilde.Cache
	resolver tilde.PathResolver
	sessions []tilde.SessionOption
	obs      *observability.Provider
	in       *observability.Instrumentor
	store    store.Store
}

// newEnv loads the configuration and builds the logger, cache and
// resolver. storePath, when set, overrides templates.store.
func newEnv(cmd *cobra.Command, storePath string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	lc.Output = cmd.ErrOrStderr()
	logger := logging.NewLogger(lc)

	sessions, err := cfg.SessionOptions()
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:      cfg,
		logger:   logger,
		cache:    tilde.ResetDefaultCache(cfg.Cache.Size, tilde.WithLogger(logger.WithComponent("cache").Slog())),
		resolver: tilde.FileResolver{Dir: cfg.Templates.Dir},
		sessions: sessions,
	}

	if storePath == "" {
		storePath = cfg.Templates.Store
	}
	if storePath != "" {
		s, err := store.NewSQLiteStore(storePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open template store: %w", err)
		}
		e.store = s
		e.resolver = s
	}

	e.obs, err = observability.NewProvider(logger)
	if err != nil {
		e.Close(cmd.Context())
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	e.in = observability.NewInstrumentor(e.obs)
	if err := e.obs.Metrics.ObserveCache(e.cache); err != nil {
		e.Close(cmd.Context())
		return nil, err
	}
	return e, nil
}

// load parses the template at path through the configured resolver.
func (e *env) load(ctx context.Context, path string) (*tilde.Template, error) {
	return e.in.Load(ctx, path, func() (*tilde.Template, error) {
		return e.cache.FromResolver(e.resolver, path)
	})
}

// Close releases the store and flushes telemetry.
func (e *env) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	if e.obs != nil {
		errs = append(errs, e.obs.Shutdown(ctx))
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	return errors.Join(errs...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
