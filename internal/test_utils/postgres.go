package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/burnwise/burnwise/internal/config"
	"github.com/burnwise/burnwise/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testDbName     = "burnwise"
	testDbUser     = "test_burnwise"
	testDbPassword = "test_burnwise"
	snapshotName   = "burnwise-test-snapshot"
)

func preparePostgresContainer(ctx context.Context) (*postgres.PostgresContainer, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(testDbName),
		postgres.WithUsername(testDbUser),
		postgres.WithPassword(testDbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestDB is a migrated Postgres instance running in a container. Restore brings
// the database back to the state right after migrations.
type TestDB struct {
	container *postgres.PostgresContainer
	cfg       config.Database
	Pool      *pgxpool.Pool
}

// TestWithDB sets up a Postgres instance and applies all migrations.
// Intended to be called from TestMain; it exits the process on failure.
func TestWithDB() (*TestDB, func()) {
	ctx := context.Background()

	container, err := preparePostgresContainer(ctx)
	if err != nil {
		log.Printf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   testDbUser,
		Pass:   testDbPassword,
		Name:   testDbName,
		Schema: "burnwise",
	}

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := container.Snapshot(ctx, postgres.WithSnapshotName(snapshotName)); err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}

	pool, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}

	testDb := &TestDB{container: container, cfg: cfg, Pool: pool}
	return testDb, func() {
		testDb.Pool.Close()
		if err := container.Terminate(ctx); err != nil {
			log.Errorf("failed to terminate postgres container: %v", err)
		}
	}
}

// Restore resets the database to the post-migration snapshot and reopens the
// pool, since restoring drops all existing connections.
func (d *TestDB) Restore(ctx context.Context) error {
	d.Pool.Close()
	if err := d.container.Restore(ctx, postgres.WithSnapshotName(snapshotName)); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	pool, err := database.Open(ctx, d.cfg)
	if err != nil {
		return err
	}
	d.Pool = pool
	return nil
}

// findProjectRoot attempts to locate the project root directory
// It looks for .git directory or go.mod file
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
