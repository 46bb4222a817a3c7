package integration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/contextfort/postwatch/internal/config"
	"github.com/contextfort/postwatch/internal/database"
	"github.com/contextfort/postwatch/internal/repositories"
)

// TestDB manages a PostgreSQL testcontainer and the database connection
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("postwatch"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	// NewConnection runs the embedded migrations for the postgres dialect
	db, err := database.NewConnection(&config.DatabaseConfig{
		URL:             connStr,
		MaxConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}, slog.Default())
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		DB:         db,
	}, nil
}

// Teardown closes the connection and stops the container
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.DB != nil {
		db.DB.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"blocked_requests",
		"whitelist",
	}

	for _, table := range tables {
		if _, err := db.DB.SQL.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from the database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.BlockedRequestRepository,
	*repositories.WhitelistRepository,
) {
	return repositories.NewBlockedRequestRepository(db),
		repositories.NewWhitelistRepository(db)
}
