package domain

import (
	"fmt"

	"github.com/louisbranch/swnsheet/internal/platform/dice"
	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
)

const (
	// PinnedScore is the value an attribute takes when pinned.
	PinnedScore = 14
	// DefaultName is the display name of a fresh character.
	DefaultName = "Default Name"
)

var attributeDie = dice.Spec{Sides: 6, Count: 3}

// Modifier returns the signed modifier for an ability score. Zero is the
// unrolled value and maps to zero.
func Modifier(score int) (int, error) {
	switch {
	case score == 0:
		return 0, nil
	case score == 3:
		return -2, nil
	case score >= 4 && score <= 7:
		return -1, nil
	case score >= 8 && score <= 13:
		return 0, nil
	case score >= 14 && score <= 17:
		return 1, nil
	case score == 18:
		return 2, nil
	default:
		return 0, apperrors.New(apperrors.CodeCharacterInvalidScore, fmt.Sprintf("Invalid attribute value: %d", score))
	}
}

// RollScores rolls 3d6 once per attribute, in Attributes order.
func RollScores(seed int64) ([]int, error) {
	result, err := dice.RollDice(dice.Request{
		Dice: dice.Repeat(attributeDie, len(Attributes)),
		Seed: seed,
	})
	if err != nil {
		return nil, fmt.Errorf("roll attributes: %w", err)
	}
	scores := make([]int, 0, len(result.Rolls))
	for _, roll := range result.Rolls {
		scores = append(scores, roll.Total)
	}
	return scores, nil
}
