package migrations_test

import (
	"context"
	"testing"

	"github.com/Nicoding1996/art-society/internal/database"
	"github.com/Nicoding1996/art-society/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, "sqlite"); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	want := []string{"players", "games", "lineups"}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, "sqlite"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db, "sqlite"); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}

func TestMigrationsAllowDuplicateCanonical(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, "sqlite"); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		if _, err := db.Exec(`INSERT INTO players (id, canonical, display_name) VALUES (?, 'sam', 'Sam')`, id); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
}

func TestMigrationsUnknownDialect(t *testing.T) {
	if err := migrations.Run(nil, "oracle"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
