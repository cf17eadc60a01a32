package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
)

// Detail names an editable free-text field.
type Detail string

const (
	DetailName Detail = "NAME"
	DetailNone Detail = "NONE"
)

// ParseDetail parses a selector case-insensitively.
func ParseDetail(value string) (Detail, error) {
	switch candidate := Detail(strings.ToUpper(strings.TrimSpace(value))); candidate {
	case DetailName, DetailNone:
		return candidate, nil
	default:
		return "", apperrors.New(apperrors.CodeCharacterInvalidDetail, fmt.Sprintf("Invalid detail: %s", value))
	}
}

func (d Detail) String() string {
	return string(d)
}
