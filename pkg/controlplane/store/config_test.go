package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestApplyDefaults_SQLitePath(t *testing.T) {
	t.Run("UsesXDGConfigHome", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)

		cfg := &Config{Type: DatabaseTypeSQLite}
		cfg.ApplyDefaults()

		assert.Equal(t, filepath.Join(tmpDir, "dittodrive", "dittodrive.db"), cfg.SQLite.Path)
	})

	t.Run("FallbackWithoutXDG", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		cfg := &Config{Type: DatabaseTypeSQLite}
		cfg.ApplyDefaults()

		home, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "dittodrive", "dittodrive.db"), cfg.SQLite.Path)
	})
}

func TestApplyDefaults_PreservesExplicitPath(t *testing.T) {
	customPath := "/custom/path/to/db.sqlite"
	cfg := &Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: customPath},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, customPath, cfg.SQLite.Path, "explicit path should be preserved")
}

func TestApplyDefaults_Postgres(t *testing.T) {
	cfg := &Config{Type: DatabaseTypePostgres}
	cfg.ApplyDefaults()

	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 5, cfg.Postgres.MaxIdleConns)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"sqlite requires path", Config{Type: DatabaseTypeSQLite}, true},
		{"sqlite with path", Config{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: "x.db"}}, false},
		{"postgres requires host", Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Database: "d", User: "u"}}, true},
		{"postgres requires database", Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Host: "h", User: "u"}}, true},
		{"postgres requires user", Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Host: "h", Database: "d"}}, true},
		{"unknown type", Config{Type: "mysql"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	config := PostgresConfig{
		Host:        "localhost",
		Port:        5432,
		Database:    "dittodrive",
		User:        "admin",
		Password:    "secret",
		SSLMode:     "require",
		SSLRootCert: "/path/to/cert",
	}

	dsn := config.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=dittodrive")
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "sslrootcert=/path/to/cert")
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")))
	assert.False(t, isUniqueConstraintError(errors.New("disk I/O error")))
}

func TestPostgresDSN_Quoting(t *testing.T) {
	config := PostgresConfig{Host: "db", Port: 5432, Database: "drive", User: "svc", Password: `it's a pass`}

	dsn := config.DSN()
	assert.Contains(t, dsn, `password='it\'s a pass'`)
	assert.NotContains(t, dsn, "sslmode")

	config.Password = ""
	assert.Contains(t, config.DSN(), "password=''")
}
