package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/lingua/internal/config"
	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/engine"
	"github.com/abhisek/lingua/internal/generator"
	"github.com/abhisek/lingua/internal/level"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/store"
)

// Options tune how an App is assembled.
type Options struct {
	// DBPath overrides the configured sqlite path.
	DBPath string

	// Provider replaces the configured generation backend.
	Provider llm.Provider

	// Logger replaces the logger built from config.
	Logger *logger.Logger
}

// App holds the wired engine and the pieces the CLI inspects directly.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Store     store.Backend
	Levels    *level.Service
	Cache     *content.Cache
	Provider  llm.Provider
	Generator generator.Generator
	Selector  *engine.Selector
}

// New wires config into a running engine. Generation is disabled, not
// fatal, when no backend is configured.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		var err error
		log, err = logger.New(cfg.Log.Mode)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}

	backend, err := openBackend(cfg.Database, opts.DBPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Log:    log,
		Store:  backend,
		Levels: level.NewService(backend.LevelRepo(), cfg.Policy, log.With("component", "level")),
		Cache:  content.NewCache(backend.ContentRepo(), cfg.Catalog, log.With("component", "content")),
	}

	a.Provider = opts.Provider
	if a.Provider != nil {
		a.Provider = llm.WithLogging(a.Provider, backend.EventRepo(), log.With("component", "llm"))
	} else if llmCfg, ok := cfg.GenerationConfig(); ok {
		a.Provider, err = llm.NewProvider(ctx, llmCfg, backend.EventRepo(), log.With("component", "llm"))
		if err != nil {
			backend.Close()
			return nil, err
		}
	} else {
		log.Warn("no generation backend configured; serving cached content only")
	}

	if a.Provider != nil {
		a.Generator = generator.New(a.Provider, cfg.Catalog, cfg.Generator, log.With("component", "generator"))
	}
	a.Selector = engine.New(a.Levels, a.Cache, a.Generator, log.With("component", "engine"))
	return a, nil
}

func openBackend(db config.DatabaseConfig, pathOverride string) (store.Backend, error) {
	switch db.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverPostgres:
		s, err := store.OpenPostgres(db.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	default:
		path := pathOverride
		if path == "" {
			path = db.DSN
		}
		var err error
		if path == "" {
			path, err = store.DefaultDBPath()
		} else {
			err = store.EnsureDir(path)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return s, nil
	}
}

// Close releases the store and flushes logs.
func (a *App) Close() error {
	err := a.Store.Close()
	a.Log.Sync()
	return err
}

// ErrGenerationDisabled is returned by PreGenerate when no backend is configured.
var ErrGenerationDisabled = errors.New("app: no generation backend configured")

// PreGenerate fills the cache ahead of demand. Unlike on-demand generation
// it is allowed to retry transient backend failures. It returns the items
// stored before the first unrecoverable error.
func (a *App) PreGenerate(ctx context.Context, req generator.Request, count int) ([]*content.Item, error) {
	if a.Provider == nil {
		return nil, ErrGenerationDisabled
	}
	retrying := llm.WithRetry(a.Provider, a.Config.LLM.Retry)
	gen := generator.New(retrying, a.Config.Catalog, a.pregenConfig(), a.Log.With("component", "pregen"))

	var items []*content.Item
	for i := 0; i < count; i++ {
		res, err := gen.Generate(ctx, req)
		if err != nil {
			return items, fmt.Errorf("generate item %d of %d: %w", i+1, count, err)
		}
		item, err := a.Cache.Store(ctx, req.SkillArea, req.ExerciseType, req.Band, res.Payload, res.Meta)
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// pregenConfig stretches the timeout to cover the retry budget.
func (a *App) pregenConfig() generator.Config {
	cfg := a.Config.Generator
	if n := a.Config.LLM.Retry.MaxAttempts; n > 1 {
		cfg.Timeout = cfg.Timeout*time.Duration(n) + a.Config.LLM.Retry.MaxWait*time.Duration(n-1)
	}
	return cfg
}
