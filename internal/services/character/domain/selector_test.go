package domain

import "testing"

func TestParseAttributeIsCaseInsensitive(t *testing.T) {
	tests := map[string]Attribute{
		"strength":     AttributeStrength,
		" Wisdom ":     AttributeWisdom,
		"CHARISMA":     AttributeCharisma,
		"none":         AttributeNone,
		"dexterity":    AttributeDexterity,
		"Intelligence": AttributeIntelligence,
	}
	for input, want := range tests {
		got, err := ParseAttribute(input)
		if err != nil {
			t.Fatalf("ParseAttribute(%q) error = %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseAttribute(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestParseAttributeRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "luck", "STR"} {
		if _, err := ParseAttribute(input); err == nil {
			t.Fatalf("ParseAttribute(%q) expected error", input)
		}
	}
}

func TestParseDetail(t *testing.T) {
	if got, err := ParseDetail("name"); err != nil || got != DetailName {
		t.Fatalf("ParseDetail(name) = %s, %v", got, err)
	}
	if got, err := ParseDetail("NONE"); err != nil || got != DetailNone {
		t.Fatalf("ParseDetail(NONE) = %s, %v", got, err)
	}
	if _, err := ParseDetail("homeworld"); err == nil {
		t.Fatal("ParseDetail(homeworld) expected error")
	}
}
