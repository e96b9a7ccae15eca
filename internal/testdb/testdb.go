// Package testdb provides migrated PostgreSQL databases for repository tests.
package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Ramsey-B/willow/pkg/database"
)

const (
	// EnvDSN points the tests at an existing database
	EnvDSN = "WILLOW_TEST_DATABASE_DSN"
	// EnvContainers starts a throwaway postgres container when no DSN is set
	EnvContainers = "WILLOW_TEST_CONTAINERS"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// Logger returns the development logger used by integration tests
func Logger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// Open connects to the test database and applies the db/pg migrations. The
// test is skipped in short mode or when no database is configured.
func Open(t *testing.T) *database.DatabaseInstance {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		if enabled, _ := strconv.ParseBool(os.Getenv(EnvContainers)); !enabled {
			t.Skipf("%s is not set and %s is disabled", EnvDSN, EnvContainers)
		}
		containerOnce.Do(func() {
			containerDSN, containerErr = startPostgres(context.Background())
		})
		if containerErr != nil {
			t.Skipf("postgres container unavailable: %v", containerErr)
		}
		dsn = containerDSN
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	instance := database.NewDatabaseInstance(db, Logger())
	migrations := database.NewMigrationService(Logger(), &database.MigrationConfig{
		MigrationFolderPath: migrationsDir(),
	})
	if err := migrations.Migrate(instance); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return instance
}

// startPostgres runs a postgres container that lives until the test binary
// exits. Ryuk reaps it afterwards.
func startPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "willow",
			"POSTGRES_PASSWORD": "willow",
			"POSTGRES_DB":       "willow",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("postgres://willow:willow@%s:%s/willow?sslmode=disable", host, port.Port()), nil
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "db", "pg")
}
