package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DatabaseType selects the metadata backend.
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

// Config selects and configures the metadata database.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" validate:"omitempty,oneof=sqlite postgres" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// SQLiteConfig locates the single-node database file. ":memory:" keeps the
// database in process.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig points the store at a shared PostgreSQL server.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// SSLMode is one of disable, require, verify-ca or verify-full.
	SSLMode     string `mapstructure:"sslmode" yaml:"sslmode"`
	SSLRootCert string `mapstructure:"sslrootcert" yaml:"sslrootcert,omitempty"`

	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN renders the keyword/value connection string understood by pgx.
// Values containing spaces or quotes are single-quoted.
func (c *PostgresConfig) DSN() string {
	pairs := [][2]string{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.Database},
		{"sslmode", c.SSLMode},
		{"sslrootcert", c.SSLRootCert},
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p[1] == "" && p[0] != "password" {
			continue
		}
		parts = append(parts, p[0]+"="+quoteDSNValue(p[1]))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// ApplyDefaults fills unset fields. SQLite lives next to the config file
// under $XDG_CONFIG_HOME/dittodrive unless a path is given.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}

	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			c.SQLite.Path = filepath.Join(configHome(), "dittodrive", "dittodrive.db")
		}
	case DatabaseTypePostgres:
		pg := &c.Postgres
		if pg.Port == 0 {
			pg.Port = 5432
		}
		if pg.SSLMode == "" {
			pg.SSLMode = "disable"
		}
		if pg.MaxOpenConns == 0 {
			pg.MaxOpenConns = 25
		}
		if pg.MaxIdleConns == 0 {
			pg.MaxIdleConns = 5
		}
	}
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// Validate reports the first missing setting for the selected backend.
func (c *Config) Validate() error {
	var missing string
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			missing = "sqlite path"
		}
	case DatabaseTypePostgres:
		switch {
		case c.Postgres.Host == "":
			missing = "postgres host"
		case c.Postgres.Database == "":
			missing = "postgres database"
		case c.Postgres.User == "":
			missing = "postgres user"
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Type)
	}

	if missing != "" {
		return errors.New(missing + " is required")
	}
	return nil
}
