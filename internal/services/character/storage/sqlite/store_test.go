package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/swnsheet/internal/services/character/domain"
	"github.com/louisbranch/swnsheet/internal/services/character/storage"
)

var _ storage.CharacterStore = (*Store)(nil)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetCharacterRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	character := domain.New()
	character.Name = "Ash"
	if err := character.ApplyRoll([]int{9, 12, 5, 16, 8, 11}); err != nil {
		t.Fatalf("apply roll: %v", err)
	}
	if err := character.ChangeOneAttribute(domain.AttributeConstitution); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := store.PutCharacter(ctx, "session-1", character); err != nil {
		t.Fatalf("put character: %v", err)
	}

	got, err := store.GetCharacter(ctx, "session-1")
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if got != character {
		t.Fatalf("character = %+v, want %+v", got, character)
	}
}

func TestPutCharacterReplacesExisting(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	first := domain.New()
	if err := store.PutCharacter(ctx, "s", first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	second := domain.New()
	second.Name = "Replaced"
	if err := store.PutCharacter(ctx, "s", second); err != nil {
		t.Fatalf("put second: %v", err)
	}
	got, err := store.GetCharacter(ctx, "s")
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if got.Name != "Replaced" {
		t.Fatalf("name = %q, want Replaced", got.Name)
	}
}

func TestGetCharacterReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetCharacter(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get character error = %v, want ErrNotFound", err)
	}
}

func TestPutCharacterRejectsUnknownPin(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	character := domain.New()
	character.ChangedAttribute = domain.Attribute("LUCK")
	err := store.PutCharacter(context.Background(), "s", character)
	if err == nil || !strings.Contains(err.Error(), "invalid pinned attribute") {
		t.Fatalf("put character error = %v, want check violation", err)
	}
}

func TestReopenKeepsCharacters(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "character.db")
	ctx := context.Background()
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	character := domain.New()
	character.Name = "Persisted"
	if err := store.PutCharacter(ctx, "s", character); err != nil {
		t.Fatalf("put character: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.GetCharacter(ctx, "s")
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if got.Name != "Persisted" {
		t.Fatalf("name = %q, want Persisted", got.Name)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "character.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
