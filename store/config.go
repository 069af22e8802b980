package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// PoolConfig tunes the database/sql connection pool behind a bun.DB.
type PoolConfig struct {
	// MaxOpenConns caps open connections. Zero leaves the driver default.
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns caps idle connections kept in the pool.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// ConnMaxIdleTime closes connections idle for longer than this.
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// Config describes how to reach the backing store.
type Config struct {
	Driver     string     `yaml:"driver"`
	DSN        string     `yaml:"dsn"`
	Pool       PoolConfig `yaml:"pool"`
	LogQueries bool       `yaml:"log_queries"`
}

// DefaultConfig returns an in-memory sqlite configuration.
func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		DSN:    "file::memory:?cache=shared",
		Pool: PoolConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
	}
}

// Validate checks whether the configuration values are usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.Pool),
	)
}

// Validate checks the pool limits are not negative.
func (p PoolConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxOpenConns, validation.Min(0)),
		validation.Field(&p.MaxIdleConns, validation.Min(0)),
		validation.Field(&p.ConnMaxLifetime, validation.Min(time.Duration(0))),
		validation.Field(&p.ConnMaxIdleTime, validation.Min(time.Duration(0))),
	)
}

func (p PoolConfig) apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLifetime)
	}
	if p.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
	}
}

// LoadConfig decodes a YAML document on top of DefaultConfig and validates it.
// An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("store: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Open validates cfg, opens the database/sql handle and wraps it in a bun.DB
// using the dialect that matches the driver. When cfg.LogQueries is set every
// statement is logged through logger.
func Open(cfg Config, logger *zap.Logger) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}
	cfg.Pool.apply(sqldb)

	var dialect schema.Dialect
	switch cfg.Driver {
	case DriverPostgres:
		dialect = pgdialect.New()
	default:
		dialect = sqlitedialect.New()
	}

	db := bun.NewDB(sqldb, dialect)
	if cfg.LogQueries {
		if logger == nil {
			logger = zap.NewNop()
		}
		db.AddQueryHook(NewQueryLogger(logger))
	}
	return db, nil
}
