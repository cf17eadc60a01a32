package domain

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
)

func TestModifierTable(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{0, 0},
		{3, -2},
		{4, -1},
		{7, -1},
		{8, 0},
		{13, 0},
		{14, 1},
		{17, 1},
		{18, 2},
	}
	for _, tt := range tests {
		got, err := Modifier(tt.score)
		if err != nil {
			t.Fatalf("Modifier(%d) error = %v", tt.score, err)
		}
		if got != tt.want {
			t.Fatalf("Modifier(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestModifierRejectsOutOfRange(t *testing.T) {
	for _, score := range []int{-1, 1, 2, 19, 100} {
		_, err := Modifier(score)
		if !errors.Is(err, &apperrors.Error{Code: apperrors.CodeCharacterInvalidScore}) {
			t.Fatalf("Modifier(%d) error = %v, want invalid score", score, err)
		}
	}
}

func TestRollScoresIsDeterministicAndInRange(t *testing.T) {
	first, err := RollScores(42)
	if err != nil {
		t.Fatalf("RollScores() error = %v", err)
	}
	second, err := RollScores(42)
	if err != nil {
		t.Fatalf("RollScores() error = %v", err)
	}
	if len(first) != len(Attributes) {
		t.Fatalf("len(scores) = %d, want %d", len(first), len(Attributes))
	}
	for i, score := range first {
		if score < 3 || score > 18 {
			t.Fatalf("score[%d] = %d, want 3..18", i, score)
		}
		if score != second[i] {
			t.Fatalf("score[%d] differs across same seed: %d vs %d", i, score, second[i])
		}
	}
}
