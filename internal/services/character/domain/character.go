package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
)

// Character is the persisted sheet state. The JSON names are the wire format
// shared with the browser sheet and the download file.
type Character struct {
	Name string `json:"mName"`

	Strength     int `json:"mStrength"`
	Dexterity    int `json:"mDexterity"`
	Constitution int `json:"mConstitution"`
	Intelligence int `json:"mIntelligence"`
	Wisdom       int `json:"mWisdom"`
	Charisma     int `json:"mCharisma"`

	StrengthModifier     int `json:"mStrengthModifier"`
	DexterityModifier    int `json:"mDexterityModifier"`
	ConstitutionModifier int `json:"mConstitutionModifier"`
	IntelligenceModifier int `json:"mIntelligenceModifier"`
	WisdomModifier       int `json:"mWisdomModifier"`
	CharismaModifier     int `json:"mCharismaModifier"`

	ChangedAttribute              Attribute `json:"mChangedAttribute"`
	ChangedAttributeOriginalValue int       `json:"mChangedAttributeOriginalValue"`
}

// New returns a character with default values.
func New() Character {
	return Character{
		Name:             DefaultName,
		ChangedAttribute: AttributeNone,
	}
}

func (c *Character) fields(attr Attribute) (score *int, modifier *int, ok bool) {
	switch attr {
	case AttributeStrength:
		return &c.Strength, &c.StrengthModifier, true
	case AttributeDexterity:
		return &c.Dexterity, &c.DexterityModifier, true
	case AttributeConstitution:
		return &c.Constitution, &c.ConstitutionModifier, true
	case AttributeIntelligence:
		return &c.Intelligence, &c.IntelligenceModifier, true
	case AttributeWisdom:
		return &c.Wisdom, &c.WisdomModifier, true
	case AttributeCharisma:
		return &c.Charisma, &c.CharismaModifier, true
	default:
		return nil, nil, false
	}
}

// Score returns the current score of attr, or zero for NONE.
func (c Character) Score(attr Attribute) int {
	score, _, ok := c.fields(attr)
	if !ok {
		return 0
	}
	return *score
}

// ModifierOf returns the stored modifier of attr, or zero for NONE.
func (c Character) ModifierOf(attr Attribute) int {
	_, modifier, ok := c.fields(attr)
	if !ok {
		return 0
	}
	return *modifier
}

// setScore writes score and its modifier, returning the previous score.
func (c *Character) setScore(attr Attribute, value int) (int, error) {
	score, modifier, ok := c.fields(attr)
	if !ok {
		return 0, apperrors.New(apperrors.CodeCharacterInvalidAttr, fmt.Sprintf("Invalid attribute: %s", attr))
	}
	mod, err := Modifier(value)
	if err != nil {
		return 0, err
	}
	previous := *score
	*score = value
	*modifier = mod
	return previous, nil
}

// ApplyRoll replaces all six scores and modifiers. The pin is left as is, so
// a later pin move restores a score from before the roll.
func (c *Character) ApplyRoll(scores []int) error {
	if len(scores) != len(Attributes) {
		return fmt.Errorf("expected %d scores, got %d", len(Attributes), len(scores))
	}
	next := *c
	for i, attr := range Attributes {
		if _, err := next.setScore(attr, scores[i]); err != nil {
			return err
		}
	}
	*c = next
	return nil
}

// ChangeOneAttribute pins attr to PinnedScore. Any earlier pin is restored to
// its original score first; pinning NONE only clears the pin.
func (c *Character) ChangeOneAttribute(attr Attribute) error {
	if attr == "" {
		attr = AttributeNone
	}
	if _, _, ok := c.fields(attr); !ok && attr != AttributeNone {
		return apperrors.New(apperrors.CodeCharacterInvalidAttr, fmt.Sprintf("Invalid attribute: %s", attr))
	}

	next := *c
	if !next.ChangedAttribute.IsNone() {
		if _, err := next.setScore(next.ChangedAttribute, next.ChangedAttributeOriginalValue); err != nil {
			return fmt.Errorf("restore %s: %w", next.ChangedAttribute, err)
		}
	}
	next.ChangedAttribute = attr
	next.ChangedAttributeOriginalValue = 0
	if attr != AttributeNone {
		original, err := next.setScore(attr, PinnedScore)
		if err != nil {
			return err
		}
		next.ChangedAttributeOriginalValue = original
	}
	*c = next
	return nil
}

// SetDetail updates a free-text detail. Only NAME is editable.
func (c *Character) SetDetail(detail Detail, value string) error {
	if detail != DetailName {
		return apperrors.New(apperrors.CodeCharacterInvalidDetail, fmt.Sprintf("Invalid detail: %s", detail))
	}
	c.Name = value
	return nil
}

// Normalize validates the pin and every score, then recomputes all
// modifiers from the scores. Modifiers supplied by callers are ignored.
func (c *Character) Normalize() error {
	attr := AttributeNone
	if strings.TrimSpace(string(c.ChangedAttribute)) != "" {
		parsed, err := ParseAttribute(string(c.ChangedAttribute))
		if err != nil {
			return err
		}
		attr = parsed
	}
	next := *c
	next.ChangedAttribute = attr
	if attr == AttributeNone {
		next.ChangedAttributeOriginalValue = 0
	} else if _, err := Modifier(next.ChangedAttributeOriginalValue); err != nil {
		return err
	}
	for _, a := range Attributes {
		if _, err := next.setScore(a, next.Score(a)); err != nil {
			return err
		}
	}
	*c = next
	return nil
}

// Decode parses an uploaded character. Fields missing from the document keep
// their defaults.
func Decode(data []byte) (Character, error) {
	character := New()
	if err := json.Unmarshal(data, &character); err != nil {
		return Character{}, apperrors.Wrap(apperrors.CodeCharacterInvalidPayload, "Invalid JSON format", err)
	}
	if err := character.Normalize(); err != nil {
		return Character{}, err
	}
	return character, nil
}

// Encode renders the character as indented JSON for download.
func Encode(c Character) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode character: %w", err)
	}
	return data, nil
}
