// Package service implements the session-keyed character operations behind
// the character API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
	"github.com/louisbranch/swnsheet/internal/platform/random"
	"github.com/louisbranch/swnsheet/internal/services/character/domain"
	"github.com/louisbranch/swnsheet/internal/services/character/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// DefaultExportFilename is used when a character name yields no usable slug.
const DefaultExportFilename = "character.json"

var tracer = otel.Tracer("swnsheet/character/service")

var errNoCharacter = apperrors.New(apperrors.CodeCharacterNotFound, "No character found")

// Export is a downloadable character snapshot.
type Export struct {
	Filename string
	Body     []byte
}

// Service applies character rules against a store.
type Service struct {
	store storage.CharacterStore
	seed  random.SeedFunc
}

// New builds a Service. A nil seed uses crypto-random seeds.
func New(store storage.CharacterStore, seed random.SeedFunc) *Service {
	if seed == nil {
		seed = random.NewSeed
	}
	return &Service{store: store, seed: seed}
}

// Get returns the session character, creating a default one when missing.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Character, error) {
	return traced(ctx, "Get", func(ctx context.Context) (domain.Character, error) {
		return s.get(ctx, sessionID)
	})
}

// New replaces the session character with a default one.
func (s *Service) New(ctx context.Context, sessionID string) (domain.Character, error) {
	return traced(ctx, "New", func(ctx context.Context) (domain.Character, error) {
		return s.newCharacter(ctx, sessionID)
	})
}

// Roll rolls fresh scores for the session character, creating it when missing.
func (s *Service) Roll(ctx context.Context, sessionID string) (domain.Character, error) {
	return traced(ctx, "Roll", func(ctx context.Context) (domain.Character, error) {
		return s.roll(ctx, sessionID)
	})
}

// ChangeAttribute pins the named attribute to 14.
func (s *Service) ChangeAttribute(ctx context.Context, sessionID, attribute string) (domain.Character, error) {
	return traced(ctx, "ChangeAttribute", func(ctx context.Context) (domain.Character, error) {
		return s.changeAttribute(ctx, sessionID, attribute)
	})
}

// SetDetail updates a named detail.
func (s *Service) SetDetail(ctx context.Context, sessionID, detail, value string) (domain.Character, error) {
	return traced(ctx, "SetDetail", func(ctx context.Context) (domain.Character, error) {
		return s.setDetail(ctx, sessionID, detail, value)
	})
}

// Upload replaces the session character with a decoded document.
func (s *Service) Upload(ctx context.Context, sessionID string, data []byte) (domain.Character, error) {
	return traced(ctx, "Upload", func(ctx context.Context) (domain.Character, error) {
		return s.upload(ctx, sessionID, data)
	})
}

// Download renders the session character as an indented JSON export.
func (s *Service) Download(ctx context.Context, sessionID string) (Export, error) {
	return traced(ctx, "Download", func(ctx context.Context) (Export, error) {
		return s.download(ctx, sessionID)
	})
}

func (s *Service) get(ctx context.Context, sessionID string) (domain.Character, error) {
	return s.loadOrCreate(ctx, sessionID)
}

func (s *Service) newCharacter(ctx context.Context, sessionID string) (domain.Character, error) {
	character := domain.New()
	if err := s.put(ctx, sessionID, character); err != nil {
		return domain.Character{}, err
	}
	return character, nil
}

func (s *Service) roll(ctx context.Context, sessionID string) (domain.Character, error) {
	character, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return domain.Character{}, err
	}
	seed, err := s.seed()
	if err != nil {
		return domain.Character{}, fmt.Errorf("seed roll: %w", err)
	}
	scores, err := domain.RollScores(seed)
	if err != nil {
		return domain.Character{}, err
	}
	if err := character.ApplyRoll(scores); err != nil {
		return domain.Character{}, err
	}
	if err := s.put(ctx, sessionID, character); err != nil {
		return domain.Character{}, err
	}
	return character, nil
}

func (s *Service) changeAttribute(ctx context.Context, sessionID, attribute string) (domain.Character, error) {
	character, err := s.loadExisting(ctx, sessionID)
	if err != nil {
		return domain.Character{}, err
	}
	attr, err := domain.ParseAttribute(attribute)
	if err != nil {
		return domain.Character{}, err
	}
	if err := character.ChangeOneAttribute(attr); err != nil {
		return domain.Character{}, err
	}
	if err := s.put(ctx, sessionID, character); err != nil {
		return domain.Character{}, err
	}
	return character, nil
}

func (s *Service) setDetail(ctx context.Context, sessionID, detail, value string) (domain.Character, error) {
	character, err := s.loadExisting(ctx, sessionID)
	if err != nil {
		return domain.Character{}, err
	}
	parsed, err := domain.ParseDetail(detail)
	if err != nil {
		return domain.Character{}, err
	}
	if err := character.SetDetail(parsed, value); err != nil {
		return domain.Character{}, err
	}
	if err := s.put(ctx, sessionID, character); err != nil {
		return domain.Character{}, err
	}
	return character, nil
}

func (s *Service) upload(ctx context.Context, sessionID string, data []byte) (domain.Character, error) {
	character, err := domain.Decode(data)
	if err != nil {
		return domain.Character{}, err
	}
	if err := s.put(ctx, sessionID, character); err != nil {
		return domain.Character{}, err
	}
	return character, nil
}

func (s *Service) download(ctx context.Context, sessionID string) (Export, error) {
	character, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return Export{}, err
	}
	body, err := domain.Encode(character)
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: ExportFilename(character.Name), Body: body}, nil
}

func traced[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "character."+op)
	defer span.End()
	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// ExportFilename derives a file name from a character name: lower-case
// letters and digits, other runs collapsed to one underscore.
func ExportFilename(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return DefaultExportFilename
	}
	return b.String() + ".json"
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID string) (domain.Character, error) {
	character, err := s.store.GetCharacter(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		character = domain.New()
		if err := s.put(ctx, sessionID, character); err != nil {
			return domain.Character{}, err
		}
		return character, nil
	}
	if err != nil {
		return domain.Character{}, fmt.Errorf("load character: %w", err)
	}
	return character, nil
}

func (s *Service) loadExisting(ctx context.Context, sessionID string) (domain.Character, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Character{}, errNoCharacter
	}
	character, err := s.store.GetCharacter(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Character{}, errNoCharacter
	}
	if err != nil {
		return domain.Character{}, fmt.Errorf("load character: %w", err)
	}
	return character, nil
}

func (s *Service) put(ctx context.Context, sessionID string, character domain.Character) error {
	if err := s.store.PutCharacter(ctx, sessionID, character); err != nil {
		return fmt.Errorf("store character: %w", err)
	}
	return nil
}
