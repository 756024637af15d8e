package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Verify tables exist.
	for _, table := range []string{"builds", "build_unresolved"} {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pagebuild", "history.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer d.Close()

	if d.Path() != path {
		t.Errorf("Path() = %q, want %q", d.Path(), path)
	}

	_, err = d.Exec(`INSERT INTO builds (id, started_at, mode, status) VALUES ('b1', '2024-01-01 00:00:00.000', 'reference', 'ok')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = d.Exec(`INSERT INTO builds (id, started_at, mode, status) VALUES ('b2', '2024-01-01 00:00:00.000', 'minified', 'ok')`)
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown mode")
	}
}
