// Package storage defines persistence contracts for character service state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/swnsheet/internal/services/character/domain"
)

// ErrNotFound indicates no character is stored for a session.
var ErrNotFound = errors.New("record not found")

// CharacterStore persists one character per session id. Implementations
// are safe for concurrent use.
type CharacterStore interface {
	GetCharacter(ctx context.Context, sessionID string) (domain.Character, error)
	PutCharacter(ctx context.Context, sessionID string, character domain.Character) error
}
