package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cherryfit/cherryfit/internal/db"
	"github.com/jmoiron/sqlx"
)

const (
	testOwner      = "00000000-0000-0000-0000-000000000001"
	otherTestOwner = "00000000-0000-0000-0000-000000000002"
)

func newTestDB(t *testing.T, schema string) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), schema+".db")
	conn, err := db.Init(db.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.RunMigrations(context.Background(), conn.DB, db.DriverSQLite, schema); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func ptr[T any](v T) *T {
	return &v
}
