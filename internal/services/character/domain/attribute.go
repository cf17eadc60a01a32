package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
)

// Attribute names one of the six ability scores, or NONE.
type Attribute string

const (
	AttributeStrength     Attribute = "STRENGTH"
	AttributeDexterity    Attribute = "DEXTERITY"
	AttributeConstitution Attribute = "CONSTITUTION"
	AttributeIntelligence Attribute = "INTELLIGENCE"
	AttributeWisdom       Attribute = "WISDOM"
	AttributeCharisma     Attribute = "CHARISMA"
	AttributeNone         Attribute = "NONE"
)

// Attributes lists the six ability scores in sheet order.
var Attributes = []Attribute{
	AttributeStrength,
	AttributeDexterity,
	AttributeConstitution,
	AttributeIntelligence,
	AttributeWisdom,
	AttributeCharisma,
}

// ParseAttribute parses a selector case-insensitively.
func ParseAttribute(value string) (Attribute, error) {
	candidate := Attribute(strings.ToUpper(strings.TrimSpace(value)))
	if candidate == AttributeNone {
		return AttributeNone, nil
	}
	for _, attr := range Attributes {
		if attr == candidate {
			return attr, nil
		}
	}
	return "", apperrors.New(apperrors.CodeCharacterInvalidAttr, fmt.Sprintf("Invalid attribute: %s", value))
}

// IsNone reports whether a is the empty pin.
func (a Attribute) IsNone() bool {
	return a == AttributeNone || a == ""
}

func (a Attribute) String() string {
	return string(a)
}
