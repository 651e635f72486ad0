package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyRunsMigrationsInOrder(t *testing.T) {
	sqlDB := openTestDB(t)
	fsys := fstest.MapFS{
		"0001_base.sql": {Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY);`)},
		"0002_more.sql": {Data: []byte(`ALTER TABLE items ADD COLUMN label TEXT;`)},
	}

	if err := Apply(sqlDB, fsys); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := sqlDB.Exec(`INSERT INTO items (id, label) VALUES ('a', 'b')`); err != nil {
		t.Fatalf("expected both migrations applied: %v", err)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	sqlDB := openTestDB(t)
	fsys := fstest.MapFS{
		"0001_base.sql": {Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY);`)},
	}

	if err := Apply(sqlDB, fsys); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := Apply(sqlDB, fsys); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var count int
	row := sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one recorded migration, got %d", count)
	}
}

func TestApplySkipsEmptyFiles(t *testing.T) {
	sqlDB := openTestDB(t)
	fsys := fstest.MapFS{
		"0001_empty.sql": {Data: []byte("  \n")},
	}
	if err := Apply(sqlDB, fsys); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if err := Apply(nil, fstest.MapFS{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}
