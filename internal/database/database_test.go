package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/lamumu/trivia/assets"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	migrations, err := assets.Migrations()
	if err != nil {
		t.Fatalf("assets.Migrations: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(db, migrations); err != nil {
			t.Fatalf("Migrate pass %d: %v", i, err)
		}
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied); err != nil {
		t.Fatalf("count _migrations: %v", err)
	}
	if applied != 2 {
		t.Errorf("recorded %d migrations, want 2", applied)
	}
	if _, err := db.Exec(`SELECT member, score, streak FROM leaderboard_members LIMIT 1`); err != nil {
		t.Errorf("leaderboard table missing: %v", err)
	}
	if _, err := db.Exec(`SELECT date, name, score FROM daily_runs LIMIT 1`); err != nil {
		t.Errorf("daily_runs table missing: %v", err)
	}
}

func TestMigrateRollsBackBrokenFile(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_ok.sql":     {Data: []byte(`CREATE TABLE ok (id INTEGER);`)},
		"002_broken.sql": {Data: []byte(`CREATE TABLE nope (`)},
	}
	if err := Migrate(db, fsys); err == nil {
		t.Fatal("expected error from broken migration")
	}

	var n int
	_ = db.QueryRow(`SELECT COUNT(1) FROM _migrations WHERE name='002_broken.sql'`).Scan(&n)
	if n != 0 {
		t.Error("broken migration was recorded as applied")
	}
	_ = db.QueryRow(`SELECT COUNT(1) FROM _migrations WHERE name='001_ok.sql'`).Scan(&n)
	if n != 1 {
		t.Error("first migration was not recorded")
	}
}
