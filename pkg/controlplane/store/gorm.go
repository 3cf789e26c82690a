package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// slowQueryThreshold is the duration above which GORM logs a query at WARN.
const slowQueryThreshold = 500 * time.Millisecond

// GORMStore is the Store backed by SQLite or PostgreSQL through GORM.
// Inside Transaction the same type is bound to the open transaction.
type GORMStore struct {
	db     *gorm.DB
	config *Config

	// inTx is set on stores handed out by Transaction.
	inTx bool
}

var _ Store = (*GORMStore)(nil)

// New opens the configured database and migrates the schema.
func New(config *Config) (*GORMStore, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	dialector, err := openDialector(config)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.NewSlogLogger(logger.Default(), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &GORMStore{db: db, config: config}
	pool, err := s.pool()
	if err != nil {
		return nil, err
	}
	if config.Type == DatabaseTypePostgres {
		pool.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		pool.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	} else {
		// One connection serializes SQLite writers instead of failing lock
		// upgrades with SQLITE_BUSY, and pins ":memory:" to one database.
		pool.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}
	return s, nil
}

func openDialector(config *Config) (gorm.Dialector, error) {
	if config.Type == DatabaseTypePostgres {
		return postgres.Open(config.Postgres.DSN()), nil
	}

	path := config.SQLite.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	// WAL lets readers proceed during a write; busy_timeout waits out locks
	// held by other processes such as the CLI.
	return sqlite.Open(path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"), nil
}

func (s *GORMStore) pool() (*sql.DB, error) {
	pool, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	return pool, nil
}

// DB exposes the GORM handle for tests.
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx, config: s.config, inTx: true})
	})
}

// Healthcheck pings the database.
func (s *GORMStore) Healthcheck(ctx context.Context) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GORMStore) Close() error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

// pgUniqueViolation is the SQLSTATE of a unique index violation.
const pgUniqueViolation = "23505"

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pgErr := (*pgconn.PgError)(nil); errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// SQLite only reports constraint failures as text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// convertNotFoundError maps gorm.ErrRecordNotFound to notFoundErr.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}
