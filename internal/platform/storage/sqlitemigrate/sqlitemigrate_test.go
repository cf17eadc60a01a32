package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

const createCharacters = "-- +migrate Up\nCREATE TABLE characters(session_id TEXT PRIMARY KEY, name TEXT NOT NULL);\n-- +migrate Down\nDROP TABLE characters;\n"

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"001_characters.sql": {Data: []byte(createCharacters)},
	}

	for range 2 {
		if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
			t.Fatalf("ApplyMigrations() error = %v", err)
		}
	}
	if got := countRows(t, db, "schema_migrations"); got != 1 {
		t.Fatalf("schema_migrations rows = %d, want 1", got)
	}
	if _, err := db.Exec("INSERT INTO characters(session_id, name) VALUES ('s1', 'Vex')"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
}

func TestApplyMigrationsRunsNewFilesInOrder(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"001_characters.sql": {Data: []byte(createCharacters)},
	}
	if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
		t.Fatalf("first ApplyMigrations() error = %v", err)
	}

	migrations["002_pin.sql"] = &fstest.MapFile{
		Data: []byte("ALTER TABLE characters ADD COLUMN changed_attribute TEXT NOT NULL DEFAULT 'NONE';"),
	}
	migrations["notes.txt"] = &fstest.MapFile{Data: []byte("ignored")}
	if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
		t.Fatalf("second ApplyMigrations() error = %v", err)
	}

	var last string
	if err := db.QueryRow("SELECT name FROM schema_migrations ORDER BY name DESC LIMIT 1").Scan(&last); err != nil {
		t.Fatalf("query last migration: %v", err)
	}
	if last != "002_pin.sql" {
		t.Fatalf("last migration = %q, want 002_pin.sql", last)
	}
	if _, err := db.Exec("INSERT INTO characters(session_id, name) VALUES ('s1', 'Vex')"); err != nil {
		t.Fatalf("insert after alter: %v", err)
	}
	var pinned string
	if err := db.QueryRow("SELECT changed_attribute FROM characters WHERE session_id = 's1'").Scan(&pinned); err != nil {
		t.Fatalf("query pinned: %v", err)
	}
	if pinned != "NONE" {
		t.Fatalf("changed_attribute = %q, want NONE", pinned)
	}
}

func TestApplyMigrationsLeavesFailedFileUnrecorded(t *testing.T) {
	db := openDB(t)
	bad := fstest.MapFS{
		"001_characters.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE characters(;\n")},
	}
	if err := ApplyMigrations(context.Background(), db, bad, ""); err == nil {
		t.Fatal("expected syntax error")
	}
	if got := countRows(t, db, "schema_migrations"); got != 0 {
		t.Fatalf("schema_migrations rows = %d, want 0", got)
	}

	good := fstest.MapFS{
		"001_characters.sql": {Data: []byte(createCharacters)},
	}
	if err := ApplyMigrations(context.Background(), db, good, ""); err != nil {
		t.Fatalf("retry ApplyMigrations() error = %v", err)
	}
	if got := countRows(t, db, "schema_migrations"); got != 1 {
		t.Fatalf("schema_migrations rows = %d, want 1", got)
	}
}

func TestApplyMigrationsRecordsRootedNames(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"character/001_characters.sql": {Data: []byte(createCharacters)},
	}
	if err := ApplyMigrations(context.Background(), db, migrations, "character"); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	var name string
	if err := db.QueryRow("SELECT name FROM schema_migrations").Scan(&name); err != nil {
		t.Fatalf("query migration name: %v", err)
	}
	if name != "character/001_characters.sql" {
		t.Fatalf("name = %q, want character/001_characters.sql", name)
	}
}

func TestApplyMigrationsRejectsNilDB(t *testing.T) {
	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected nil db error")
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "up and down", content: createCharacters, want: "\nCREATE TABLE characters(session_id TEXT PRIMARY KEY, name TEXT NOT NULL);\n"},
		{name: "up only", content: "-- +migrate Up\nSELECT 1;", want: "\nSELECT 1;"},
		{name: "no markers", content: "SELECT 2;", want: "SELECT 2;"},
	}
	for _, tc := range tests {
		if got := ExtractUpMigration(tc.content); got != tc.want {
			t.Fatalf("%s: ExtractUpMigration() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("table characters already exists"), want: true},
		{err: errors.New("duplicate column name: changed_attribute"), want: true},
		{err: errors.New("near \"(\": syntax error"), want: false},
	}
	for _, tc := range tests {
		if got := IsAlreadyExistsError(tc.err); got != tc.want {
			t.Fatalf("IsAlreadyExistsError(%v) = %t, want %t", tc.err, got, tc.want)
		}
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Each pooled connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
