package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/swnsheet/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/swnsheet/internal/services/character/domain"
	"github.com/louisbranch/swnsheet/internal/services/character/storage"
	"github.com/louisbranch/swnsheet/internal/services/character/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists characters in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite character store, creating its directory when needed,
// and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetCharacter returns the character stored for sessionID.
func (s *Store) GetCharacter(ctx context.Context, sessionID string) (domain.Character, error) {
	if err := ctx.Err(); err != nil {
		return domain.Character{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Character{}, fmt.Errorf("storage is not configured")
	}

	var (
		character domain.Character
		pinned    string
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, strength, dexterity, constitution, intelligence, wisdom, charisma,
		        changed_attribute, changed_attribute_original_value
		   FROM characters
		  WHERE session_id = ?`,
		strings.TrimSpace(sessionID),
	).Scan(
		&character.Name,
		&character.Strength,
		&character.Dexterity,
		&character.Constitution,
		&character.Intelligence,
		&character.Wisdom,
		&character.Charisma,
		&pinned,
		&character.ChangedAttributeOriginalValue,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Character{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Character{}, fmt.Errorf("get character: %w", err)
	}
	character.ChangedAttribute = domain.Attribute(pinned)
	if err := character.Normalize(); err != nil {
		return domain.Character{}, fmt.Errorf("load character %s: %w", sessionID, err)
	}
	return character, nil
}

// PutCharacter inserts or replaces the character for sessionID.
func (s *Store) PutCharacter(ctx context.Context, sessionID string, character domain.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	pinned := character.ChangedAttribute
	if pinned.IsNone() {
		pinned = domain.AttributeNone
	}
	now := toMillis(s.now())

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO characters (
		   session_id,
		   name,
		   strength,
		   dexterity,
		   constitution,
		   intelligence,
		   wisdom,
		   charisma,
		   changed_attribute,
		   changed_attribute_original_value,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   name = excluded.name,
		   strength = excluded.strength,
		   dexterity = excluded.dexterity,
		   constitution = excluded.constitution,
		   intelligence = excluded.intelligence,
		   wisdom = excluded.wisdom,
		   charisma = excluded.charisma,
		   changed_attribute = excluded.changed_attribute,
		   changed_attribute_original_value = excluded.changed_attribute_original_value,
		   updated_at = excluded.updated_at`,
		sessionID,
		character.Name,
		character.Strength,
		character.Dexterity,
		character.Constitution,
		character.Intelligence,
		character.Wisdom,
		character.Charisma,
		string(pinned),
		character.ChangedAttributeOriginalValue,
		now,
		now,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("put character: invalid pinned attribute %q: %w", pinned, err)
		}
		return fmt.Errorf("put character: %w", err)
	}
	return nil
}

func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_CHECK
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint failed")
}
