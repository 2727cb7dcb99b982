package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_snapshots" {
			t.Errorf("expected first migration name create_snapshots, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(MemoryDatabase)
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM snapshots LIMIT 1"); err != nil {
			t.Errorf("snapshots table should exist after migrations: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM snapshot_tracks LIMIT 1"); err != nil {
			t.Errorf("snapshot_tracks table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM snapshot_tracks LIMIT 1"); err == nil {
			t.Error("snapshot_tracks table should be dropped after rollback")
		}

		version, err := currentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if version != 1 {
			t.Errorf("expected version 1 after rollback, got %d", version)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(MemoryDatabase)
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		for i := 0; i < 2; i++ {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("run %d failed: %v", i+1, err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("Rollback with nothing applied", func(t *testing.T) {
		db, err := NewDatabase(MemoryDatabase)
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing to rollback")
		}
	})
}

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id INTEGER); -- trailing
CREATE TABLE b (
    name TEXT NOT NULL DEFAULT '' -- inline
);
`
	stmts := splitStatements(script)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
}
