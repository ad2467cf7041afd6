package migrations_test

import (
	"testing"

	"users-api/internal/migrations"
	"users-api/internal/repository/sqlite"
)

func TestUpDownVersionOnSQLite(t *testing.T) {
	db, err := sqlite.Open(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if _, _, ok, err := migrations.Version(db, migrations.DriverSQLite); err != nil || ok {
		t.Fatalf("expected no version before migrating, got ok=%v err=%v", ok, err)
	}

	if err := migrations.Up(db, migrations.DriverSQLite); err != nil {
		t.Fatalf("up: %v", err)
	}
	// second run is a no-op
	if err := migrations.Up(db, migrations.DriverSQLite); err != nil {
		t.Fatalf("repeated up: %v", err)
	}

	version, dirty, ok, err := migrations.Version(db, migrations.DriverSQLite)
	if err != nil || !ok || dirty || version != 1 {
		t.Fatalf("unexpected version %d dirty=%v ok=%v err=%v", version, dirty, ok, err)
	}

	if _, err := db.Exec(`INSERT INTO users (name, email) VALUES ('Ada', 'ada@example.com')`); err != nil {
		t.Fatalf("insert after up: %v", err)
	}

	if err := migrations.Down(db, migrations.DriverSQLite, 1); err != nil {
		t.Fatalf("down: %v", err)
	}
	if _, err := db.Exec(`SELECT 1 FROM users`); err == nil {
		t.Fatal("expected users table dropped")
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if err := migrations.Up(nil, "mysql"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
