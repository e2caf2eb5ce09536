package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration sets. The device store and the relay store evolve independently.
const (
	SchemaLocal = "local"
	SchemaRelay = "relay"
)

// dialectMap maps database drivers to Goose dialect names
var dialectMap = map[string]goose.Dialect{
	DriverSQLite:   goose.DialectSQLite3,
	DriverPostgres: goose.DialectPostgres,
}

// newProvider builds a Goose provider for one migration set. Providers hold no
// package-level state, so several stores can migrate in the same process.
func newProvider(db *sql.DB, driver, schema string) (*goose.Provider, error) {
	dialect, ok := dialectMap[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations/"+schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations directory: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

func RunMigrations(ctx context.Context, db *sql.DB, driver, schema string) error {
	provider, err := newProvider(db, driver, schema)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	slog.Info("migrations completed successfully", "schema", schema, "applied", len(results), "version", version)
	return nil
}

func MigrateDown(ctx context.Context, db *sql.DB, driver, schema string) error {
	provider, err := newProvider(db, driver, schema)
	if err != nil {
		return err
	}

	_, err = provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	slog.Info("rolled back one migration", "schema", schema)
	return nil
}

// SchemaVersion reports the highest applied migration of a set.
func SchemaVersion(ctx context.Context, db *sql.DB, driver, schema string) (int64, error) {
	provider, err := newProvider(db, driver, schema)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
