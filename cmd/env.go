package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearhaul/freight-cli/internal/dictionary"
	"github.com/clearhaul/freight-cli/internal/formats"
	"github.com/clearhaul/freight-cli/internal/resolver"
	"github.com/clearhaul/freight-cli/internal/store"
	"github.com/clearhaul/freight-cli/pkg/anthropic"
)

// env bundles the backends a command needs, opened per the configured driver.
type env struct {
	Store store.Store
	Dict  dictionary.Store
}

// Migrate applies both schemas. All statements are idempotent, so commands
// run it on every start.
func (e *env) Migrate(ctx context.Context) error {
	if err := e.Store.Migrate(ctx); err != nil {
		return err
	}
	return e.Dict.Migrate(ctx)
}

func (e *env) Close() {
	if e.Dict != nil {
		if err := e.Dict.Close(); err != nil {
			zap.L().Warn("close dictionary", zap.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func openEnv(ctx context.Context) (*env, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		dict, err := dictionary.NewSQLite(cfg.Store.Path)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "open sqlite dictionary")
		}
		return &env{Store: st, Dict: dict}, nil

	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("postgres driver requires store.database_url (FREIGHT_STORE_DATABASE_URL)")
		}
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		dict, err := dictionary.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "open postgres dictionary")
		}
		return &env{Store: st, Dict: dict}, nil

	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newRegistry loads the built-in known formats plus any extras configured on
// disk.
func newRegistry() (*formats.Registry, error) {
	var extra []formats.FormatDefinition
	if cfg.Formats.Path != "" {
		defs, err := formats.LoadFile(cfg.Formats.Path)
		if err != nil {
			return nil, eris.Wrap(err, "load extra formats")
		}
		extra = defs
		zap.L().Info("loaded extra formats", zap.Int("count", len(defs)), zap.String("path", cfg.Formats.Path))
	}
	return formats.NewRegistry(extra...), nil
}

// newResolver wires the three-origin resolver. The AI fallback is attached
// only when enabled and an API key is configured; without it unresolved
// headers stay unmapped.
func newResolver(dict dictionary.Store) (*resolver.Resolver, error) {
	registry, err := newRegistry()
	if err != nil {
		return nil, err
	}

	var fallback resolver.Fallback
	if cfg.Resolver.FallbackEnabled {
		if cfg.Anthropic.Key == "" {
			zap.L().Warn("fallback enabled but no API key configured, continuing without it")
		} else {
			client := anthropic.NewClient(cfg.Anthropic.Key)
			fallback = resolver.NewAnthropicFallback(client, cfg.Anthropic.Model, cfg.Anthropic.RequestsPerMinute)
		}
	}

	return resolver.New(registry, dict, fallback, cfg.Dictionary.ConfidenceThreshold), nil
}
