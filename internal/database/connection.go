package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/contextfort/postwatch/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

type DB struct {
	SQL    *sql.DB
	driver string
	logger *slog.Logger
}

// NewConnection opens the configured backend, verifies it, and brings the
// schema up to date. Safe to call on every process start.
func NewConnection(cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	var (
		sqlDB   *sql.DB
		driver  string
		dialect string
		dir     string
		err     error
	)

	if cfg.IsPostgres() {
		driver = driverPostgres
		dialect = "postgres"
		dir = "migrations/postgres"

		sqlDB, err = sql.Open(driverPostgres, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("unable to open postgres database: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	} else {
		driver = driverSQLite
		dialect = "sqlite3"
		dir = "migrations/sqlite"

		path := filepath.Clean(cfg.SQLitePath())
		dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
		sqlDB, err = sql.Open(driverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("unable to open sqlite database: %w", err)
		}
		// SQLite is a single-writer engine; one connection serializes access
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if err := runMigrations(ctx, sqlDB, dialect, dir); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", driver),
	)

	return &DB{SQL: sqlDB, driver: driver, logger: logger}, nil
}

// runMigrations applies all embedded goose migrations for the active dialect
func runMigrations(ctx context.Context, sqlDB *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("unable to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func (db *DB) Close() {
	db.logger.Info("closing database connection")
	_ = db.SQL.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Driver returns the active sql driver name
func (db *DB) Driver() string {
	return db.driver
}
