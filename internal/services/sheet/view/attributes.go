// Package view holds the sheet's presentation state and its templ
// components. Panels mirror the record; they never compute rules.
package view

import (
	"context"
	"strconv"
	"sync"

	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
)

// SetTo14Group is the radio group name for the pin selector.
const SetTo14Group = "setTo14"

// FormatModifier renders a modifier with a leading + when positive.
func FormatModifier(modifier int) string {
	if modifier > 0 {
		return "+" + strconv.Itoa(modifier)
	}
	return strconv.Itoa(modifier)
}

// AttributeRow is one display row. Score and Modifier are empty when no
// record has loaded.
type AttributeRow struct {
	Attribute client.Attribute
	LabelKey  string
	Label     string
	Score     string
	Modifier  string
}

var attributeLabels = map[client.Attribute][2]string{
	client.AttributeStrength:     {"attributes.strength", "Strength"},
	client.AttributeDexterity:    {"attributes.dexterity", "Dexterity"},
	client.AttributeConstitution: {"attributes.constitution", "Constitution"},
	client.AttributeIntelligence: {"attributes.intelligence", "Intelligence"},
	client.AttributeWisdom:       {"attributes.wisdom", "Wisdom"},
	client.AttributeCharisma:     {"attributes.charisma", "Charisma"},
	client.AttributeNone:         {"attributes.none", "None"},
}

// AttributeLabel returns the catalog key and English label for attr.
func AttributeLabel(attr client.Attribute) (key, fallback string) {
	label, ok := attributeLabels[attr]
	if !ok {
		return "", string(attr)
	}
	return label[0], label[1]
}

// AttributeRows builds the six display rows for rec.
func AttributeRows(rec *client.Record) []AttributeRow {
	rows := make([]AttributeRow, 0, len(client.Attributes))
	for _, attr := range client.Attributes {
		key, label := AttributeLabel(attr)
		row := AttributeRow{Attribute: attr, LabelKey: key, Label: label}
		if rec != nil {
			row.Score = strconv.Itoa(rec.Score(attr))
			row.Modifier = FormatModifier(rec.Modifier(attr))
		}
		rows = append(rows, row)
	}
	return rows
}

// AttributeCallbacks forward panel intents.
type AttributeCallbacks struct {
	OnRoll            func(ctx context.Context) error
	OnChangeAttribute func(ctx context.Context, attr client.Attribute) error
}

// AttributesPanel mirrors the six scores and the pin selection.
type AttributesPanel struct {
	callbacks AttributeCallbacks

	mu       sync.Mutex
	rows     []AttributeRow
	selected client.Attribute
}

// NewAttributesPanel returns a panel showing no record.
func NewAttributesPanel(callbacks AttributeCallbacks) *AttributesPanel {
	return &AttributesPanel{
		callbacks: callbacks,
		rows:      AttributeRows(nil),
		selected:  client.AttributeNone,
	}
}

// Sync re-reads rows and the selected pin from rec.
func (p *AttributesPanel) Sync(rec *client.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = AttributeRows(rec)
	p.selected = rec.Pinned()
}

// Rows returns a copy of the display rows.
func (p *AttributesPanel) Rows() []AttributeRow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AttributeRow(nil), p.rows...)
}

// Selected returns the radio option currently checked.
func (p *AttributesPanel) Selected() client.Attribute {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Options lists the radio options: six attributes then NONE.
func (p *AttributesPanel) Options() []client.Attribute {
	return append(append([]client.Attribute(nil), client.Attributes...), client.AttributeNone)
}

// Select forwards a radio choice. The checked option only changes on the
// next Sync.
func (p *AttributesPanel) Select(ctx context.Context, attr client.Attribute) error {
	if p.callbacks.OnChangeAttribute == nil {
		return nil
	}
	return p.callbacks.OnChangeAttribute(ctx, attr)
}

// Roll forwards the roll button.
func (p *AttributesPanel) Roll(ctx context.Context) error {
	if p.callbacks.OnRoll == nil {
		return nil
	}
	return p.callbacks.OnRoll(ctx)
}
