package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/seee"
	"github.com/aretw0/seee/internal/accounts"
	"github.com/aretw0/seee/internal/adapters/file"
	"github.com/aretw0/seee/internal/adapters/llm"
	redisstore "github.com/aretw0/seee/internal/adapters/redis"
	"github.com/aretw0/seee/internal/adapters/sqlstore"
	"github.com/aretw0/seee/internal/commission"
	"github.com/aretw0/seee/internal/config"
	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/internal/metrics"
	"github.com/aretw0/seee/internal/notebook"
	"github.com/aretw0/seee/pkg/adapters/memory"
	redislock "github.com/aretw0/seee/pkg/adapters/redis"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/persistence/middleware"
	"github.com/aretw0/seee/pkg/ports"
	"github.com/aretw0/seee/pkg/session"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	engine   *seee.Engine
	store    ports.SessionStore
	sessions *session.Orchestrator
	payments *commission.Engine
	accounts *accounts.Service
	notebook *notebook.Service

	closers []func() error
}

// newLogger builds the process logger. Servers log JSON; interactive
// commands log text to stderr.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)
	hooks := a.metrics.Hooks()

	engineOpts := []seee.Option{seee.WithLogger(logger), seee.WithLifecycleHooks(hooks)}
	if cfg.Safety.LexiconFile != "" {
		engineOpts = append(engineOpts, seee.WithLexiconFile(cfg.Safety.LexiconFile))
	}
	engine, err := seee.New(engineOpts...)
	if err != nil {
		return nil, err
	}
	a.engine = engine

	var ledger ports.Ledger
	var accountStore ports.AccountStore
	var notes ports.NotebookStore
	var managerOpts []session.Option

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		mem := memory.NewLedger()
		a.store, ledger, accountStore = memory.NewStore(), mem, mem
		notes = memory.NewNotebook()
	default:
		db, err := a.openSQL(ctx)
		if err != nil {
			return nil, err
		}
		ledger, accountStore, notes = db.Ledger(), db.Accounts(), db.Notebook()
		a.store = db.Sessions()

		switch cfg.Storage.Driver {
		case config.DriverFile:
			a.store = file.New(filepath.Join(cfg.Storage.Dir, "sessions"))
		case config.DriverRedis:
			client := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.RedisAddr})
			a.closers = append(a.closers, client.Close)
			if err := client.Ping(ctx).Err(); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			a.store = redisstore.NewFromClient(client, redisstore.WithTTL(cfg.Storage.SessionTTL))
			managerOpts = append(managerOpts, session.WithLocker(redislock.NewLocker(client, redisstore.DefaultPrefix)))
		}
	}
	if a.store, err = protectStore(a.store, cfg.Storage); err != nil {
		a.Close()
		return nil, err
	}
	managerOpts = append(managerOpts, session.WithLogger(logger))

	var orchOpts []session.OrchestratorOption
	if cfg.LLM.Enabled {
		llmCfg := llm.DefaultConfig(cfg.LLM.APIKey)
		llmCfg.BaseURL = cfg.LLM.BaseURL
		llmCfg.Model = cfg.LLM.Model
		llmCfg.Timeout = cfg.LLM.Timeout
		orchOpts = append(orchOpts, session.WithCompleter(llm.New(llmCfg, llm.WithLogger(logger))))
	}
	a.sessions = session.NewOrchestrator(session.NewManager(a.store, managerOpts...), engine, orchOpts...)

	a.payments = commission.New(ledger, commission.WithLogger(logger), commission.WithLifecycleHooks(hooks))
	a.accounts = accounts.New(accountStore, a.payments, []byte(cfg.Auth.JWTSecret),
		accounts.WithLogger(logger), accounts.WithTokenTTL(cfg.Auth.TokenTTL))
	a.notebook = notebook.New(notes, notebook.WithLogger(logger))
	return a, nil
}

// protectStore masks and then seals session blobs as configured.
func protectStore(store ports.SessionStore, cfg config.StorageConfig) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskFields) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskFields)
		if err != nil {
			return nil, fmt.Errorf("storage.mask_fields: %w", err)
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("storage.encryption_key: %w", err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: key, AcceptPlaintext: cfg.AcceptPlaintext}
		for i, k := range cfg.FallbackKeys {
			old, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("storage.fallback_keys[%d]: %w", i, err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, old)
		}
		mw, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

func (a *app) openSQL(ctx context.Context) (*sqlstore.DB, error) {
	driver, dsn := sqlstore.DriverSQLite, a.cfg.Storage.DSN
	if a.cfg.Storage.Driver == config.DriverPostgres {
		driver = sqlstore.DriverPostgres
	} else if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sqlstore.Open(ctx, driver, dsn, sqlstore.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return db, nil
}

// Close releases storage connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// localOwner is the owner of sessions created from the terminal.
func localOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// setup loads configuration and wires the app for a command.
func setup(ctx context.Context, cfg config.Config) (*app, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logger)
}

func describe(s *domain.Session) string {
	title := s.Title
	if title == "" {
		title = "(empty)"
	}
	return fmt.Sprintf("%s  %-24s  %-26s  %d ideas  %s", s.ID, title, s.Cursor.Stage, len(s.Concepts), s.UpdatedAt.Format("2006-01-02 15:04"))
}
