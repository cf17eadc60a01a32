// Package memory provides an in-process character store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/louisbranch/swnsheet/internal/services/character/domain"
	"github.com/louisbranch/swnsheet/internal/services/character/storage"
)

// Store keeps characters in a map guarded by a mutex.
type Store struct {
	mu         sync.RWMutex
	characters map[string]domain.Character
}

// New returns an empty store.
func New() *Store {
	return &Store{characters: map[string]domain.Character{}}
}

// GetCharacter returns the character for sessionID.
func (s *Store) GetCharacter(ctx context.Context, sessionID string) (domain.Character, error) {
	if err := ctx.Err(); err != nil {
		return domain.Character{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	character, ok := s.characters[strings.TrimSpace(sessionID)]
	if !ok {
		return domain.Character{}, storage.ErrNotFound
	}
	return character, nil
}

// PutCharacter stores character under sessionID, replacing any previous one.
func (s *Store) PutCharacter(ctx context.Context, sessionID string, character domain.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[sessionID] = character
	return nil
}
