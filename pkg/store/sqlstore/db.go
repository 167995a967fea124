package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	_ "github.com/ncruces/go-sqlite3/vfs/memdb"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/WYI1223/LazyLife/pkg/logger"
)

// Driver names a supported database engine.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case DriverSQLite, DriverPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

type Config struct {
	Driver Driver
	DSN    string
	// Logger receives repository events and GORM errors. Nil disables logging.
	Logger *zerolog.Logger
	// Clock stamps created_at and updated_at. Defaults to time.Now.
	Clock func() time.Time
}

// DB is an explicitly owned storage handle shared by the repositories built on it.
type DB struct {
	gorm   *gorm.DB
	driver Driver
	log    zerolog.Logger
	now    func() time.Time
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = gormlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.NewGormLogger(log),
		NowFunc: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &DB{gorm: gdb, driver: cfg.Driver, log: log, now: now}, nil
}

// MemoryDSN names a private in-memory SQLite database.
func MemoryDSN(name string) string {
	return "file:/" + name + ".db?vfs=memdb"
}

// OpenInMemory opens a fresh, empty in-memory SQLite database. Driver and DSN in cfg are ignored.
func OpenInMemory(ctx context.Context, cfg Config) (*DB, error) {
	cfg.Driver = DriverSQLite
	cfg.DSN = MemoryDSN(uuid.NewString())
	return Open(ctx, cfg)
}

func (d *DB) Driver() Driver { return d.driver }

func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
