package lazynote

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/WYI1223/LazyLife/pkg/logger"
	"github.com/WYI1223/LazyLife/pkg/provider"
	"github.com/WYI1223/LazyLife/pkg/service"
	"github.com/WYI1223/LazyLife/pkg/store"
	"github.com/WYI1223/LazyLife/pkg/store/sqlstore"
)

// App holds the application state: the storage handle, the services built on it and the
// change feed. Repositories are wrapped with read-only guards that consult the runtime flag.
type App struct {
	config  *Config
	logData *logger.LogData
	log     zerolog.Logger
	db      *sqlstore.DB
	now     func() time.Time

	atoms     store.AtomRepository
	tags      store.TagStore
	tree      store.TreeRepository
	tasks     *service.TaskService
	trees     *service.TreeService
	providers *provider.Registry
	hub       *Hub

	readOnly atomic.Bool
}

// New sets up logging and connects to the database. The schema is not touched: call Migrate
// to bring it up to date and Open before serving requests.
func New(ctx context.Context, config *Config) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logData, err := openLogger(config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	now := config.Clock
	if now == nil {
		now = time.Now
	}

	log := logData.Logger.With().Str("module", "app").Logger()
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver: sqlstore.Driver(config.Storage.Driver),
		DSN:    config.Storage.DSN,
		Logger: &logData.Logger,
		Clock:  now,
	})
	if err != nil {
		_ = logData.Close()
		return nil, err
	}
	log.Info().Str("event", "db_open").Str("driver", config.Storage.Driver).Send()

	app := &App{
		config:    config,
		logData:   logData,
		log:       log,
		db:        db,
		now:       now,
		providers: provider.NewRegistry(),
		hub:       NewHub(log),
	}
	app.readOnly.Store(config.ReadOnly)
	return app, nil
}

func openLogger(cfg LogConfig) (*logger.LogData, error) {
	if cfg.Dir != "" {
		return logger.OpenSession(cfg.Dir, cfg.Level, time.Now())
	}
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logger.New().Level(level).Make()
}

// Migrate applies pending schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	if a.IsReadOnly() {
		return store.ErrReadOnly
	}
	a.log.Info().Str("event", "migrate_start").Send()
	if err := a.db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.log.Info().Str("event", "migrate_done").Str("status", "ok").Send()
	return nil
}

// Open checks the schema and builds the repositories and services.
func (a *App) Open(ctx context.Context) error {
	atoms, err := sqlstore.NewAtomRepository(ctx, a.db)
	if err != nil {
		return schemaHint(err)
	}
	tags, err := sqlstore.NewTagStore(ctx, a.db)
	if err != nil {
		return schemaHint(err)
	}
	tree, err := sqlstore.NewTreeRepository(ctx, a.db)
	if err != nil {
		return schemaHint(err)
	}

	a.atoms = store.NewReadOnlyAtomRepository(atoms, a.IsReadOnly)
	a.tags = store.NewReadOnlyTagStore(tags, a.IsReadOnly)
	a.tree = store.NewReadOnlyTreeRepository(tree, a.IsReadOnly)
	a.tasks = service.NewTaskService(a.atoms, a.tags)
	a.trees = service.NewTreeService(a.tree)
	return nil
}

func schemaHint(err error) error {
	if errors.Is(err, store.ErrSchemaNotReady) {
		return fmt.Errorf("%w (run 'lazynote migrate' first)", err)
	}
	return err
}

// Close releases the database and the log file.
func (a *App) Close() error {
	a.hub.Close()
	err := a.db.Close()
	if cerr := a.logData.Close(); err == nil {
		err = cerr
	}
	return err
}

// Providers returns the sync provider registry. It starts out empty.
func (a *App) Providers() *provider.Registry {
	return a.providers
}

// SetReadOnly toggles read-only mode. While it is on, every write fails with store.ErrReadOnly.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Info().Str("event", "read_only_changed").Bool("read_only", readOnly).Send()
}

func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}
