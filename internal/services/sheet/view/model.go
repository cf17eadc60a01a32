package view

import (
	"strings"

	"github.com/louisbranch/swnsheet/internal/platform/i18n"
	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/louisbranch/swnsheet/internal/services/sheet/controller"
	"golang.org/x/text/message"
)

// SheetID is the element id HTMX swaps on every action.
const SheetID = "sheet"

// PageModel is everything one render needs.
type PageModel struct {
	State      controller.State
	Attributes *AttributesPanel
	Details    *DetailsPanel
	Printer    *message.Printer
	Lang       string
}

func (m PageModel) text(key, fallback string) string {
	return i18n.Text(m.Printer, key, fallback)
}

// ErrorText localizes the state error, keeping server-supplied text as is.
func (m PageModel) ErrorText() string {
	if m.State.ErrorKey == "" {
		return m.State.Error
	}
	return m.text(m.State.ErrorKey, m.State.Error)
}

func (m PageModel) lang() string {
	if m.Lang == "" {
		return i18n.DefaultTag().String()
	}
	return m.Lang
}

func (m PageModel) detailValue() string {
	if m.Details == nil {
		return ""
	}
	return m.Details.Value()
}

// attributeRows prefers the panel, which holds the last synced record.
func (m PageModel) attributeRows() []AttributeRow {
	if m.Attributes == nil {
		return AttributeRows(m.State.Character)
	}
	return m.Attributes.Rows()
}

func (m PageModel) selected() client.Attribute {
	if m.Attributes == nil {
		return client.AttributeNone
	}
	return m.Attributes.Selected()
}

func (m PageModel) attributeLabel(attr client.Attribute) string {
	key, fallback := AttributeLabel(attr)
	return m.text(key, fallback)
}

func rowID(attr client.Attribute) string {
	return strings.ToLower(string(attr))
}
