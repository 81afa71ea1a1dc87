package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/samwise/internal/config"
	"github.com/balkashynov/samwise/internal/models"
)

// Store is the storage layer. All timestamps come from its clock, and all
// primary keys except users.user_id come from the engine.
type Store struct {
	db     *gorm.DB
	log    zerolog.Logger
	strict bool
}

type options struct {
	now func() time.Time
}

// Option customises Open.
type Option func(*options)

// WithClock replaces the wall clock used for time_created/time_modified.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Open connects to the configured database and runs migrations.
func Open(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Store, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLog := logger.Default.LogMode(logger.Silent) // Quiet by default
	if log.GetLevel() <= zerolog.DebugLevel {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	clk := newClock(o.now)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		NowFunc:        clk.Now,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		// sqlite has a single writer, and each ":memory:" connection is its own database.
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{db: gdb, log: log.With().Str("component", "store").Logger(), strict: cfg.StrictReferences}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	s.log.Debug().Str("driver", cfg.DBDriver).Bool("strict_references", s.strict).Msg("store opened")
	return s, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DBPath), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.PostgresDSN), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// Migrate creates/updates the five tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Task{},
		&models.Action{},
		&models.Points{},
	)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn against a store bound to one database transaction.
// Single-record writes are already atomic; use this for multi-record sequences.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.with(tx))
	})
}

// StrictReferences reports whether advisory references are checked on write.
func (s *Store) StrictReferences() bool { return s.strict }

func (s *Store) with(tx *gorm.DB) *Store {
	c := *s
	c.db = tx
	return &c
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// clock is strictly increasing at microsecond resolution, the finest precision
// both sqlite and postgres round-trip.
type clock struct {
	mu     sync.Mutex
	source func() time.Time
	last   time.Time
}

func newClock(source func() time.Time) *clock {
	return &clock{source: source}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.source().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
