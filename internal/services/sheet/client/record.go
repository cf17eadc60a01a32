package client

// Attribute selects one ability score, or NONE.
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

// Detail selects an editable text field.
type Detail string

const (
	DetailName Detail = "NAME"
	DetailNone Detail = "NONE"
)

// Record is the character as the service reports it. The sheet never
// derives values from it; every field is displayed as received.
type Record struct {
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

// Score returns the score for attr. A nil record or NONE yields zero.
func (r *Record) Score(attr Attribute) int {
	if r == nil {
		return 0
	}
	switch attr {
	case AttributeStrength:
		return r.Strength
	case AttributeDexterity:
		return r.Dexterity
	case AttributeConstitution:
		return r.Constitution
	case AttributeIntelligence:
		return r.Intelligence
	case AttributeWisdom:
		return r.Wisdom
	case AttributeCharisma:
		return r.Charisma
	default:
		return 0
	}
}

// Modifier returns the modifier for attr. A nil record or NONE yields zero.
func (r *Record) Modifier(attr Attribute) int {
	if r == nil {
		return 0
	}
	switch attr {
	case AttributeStrength:
		return r.StrengthModifier
	case AttributeDexterity:
		return r.DexterityModifier
	case AttributeConstitution:
		return r.ConstitutionModifier
	case AttributeIntelligence:
		return r.IntelligenceModifier
	case AttributeWisdom:
		return r.WisdomModifier
	case AttributeCharisma:
		return r.CharismaModifier
	default:
		return 0
	}
}

// Pinned returns the pinned attribute, treating empty as NONE.
func (r *Record) Pinned() Attribute {
	if r == nil || r.ChangedAttribute == "" {
		return AttributeNone
	}
	return r.ChangedAttribute
}
