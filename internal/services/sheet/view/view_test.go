package view

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/louisbranch/swnsheet/internal/platform/i18n"
	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/louisbranch/swnsheet/internal/services/sheet/controller"
	"golang.org/x/text/language"
)

func sampleRecord() *client.Record {
	return &client.Record{
		Name:                 "Tess <Vane>",
		Strength:             14,
		StrengthModifier:     1,
		Dexterity:            5,
		DexterityModifier:    -1,
		Constitution:         10,
		Intelligence:         18,
		IntelligenceModifier: 2,
		Wisdom:               3,
		WisdomModifier:       -2,
		Charisma:             9,
		ChangedAttribute:     client.AttributeStrength,
	}
}

func TestFormatModifier(t *testing.T) {
	tests := map[int]string{2: "+2", 1: "+1", 0: "0", -1: "-1", -2: "-2"}
	for in, want := range tests {
		if got := FormatModifier(in); got != want {
			t.Fatalf("FormatModifier(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestAttributeRowsNilRecord(t *testing.T) {
	rows := AttributeRows(nil)
	if len(rows) != 6 {
		t.Fatalf("len(rows) = %d, want 6", len(rows))
	}
	for _, row := range rows {
		if row.Score != "" || row.Modifier != "" {
			t.Fatalf("row %s = %+v, want empty values", row.Attribute, row)
		}
	}
}

func TestAttributesPanelSyncAndSelect(t *testing.T) {
	var forwarded []client.Attribute
	panel := NewAttributesPanel(AttributeCallbacks{
		OnChangeAttribute: func(_ context.Context, attr client.Attribute) error {
			forwarded = append(forwarded, attr)
			return nil
		},
	})
	if panel.Selected() != client.AttributeNone {
		t.Fatalf("initial selection = %s, want NONE", panel.Selected())
	}

	panel.Sync(sampleRecord())
	if panel.Selected() != client.AttributeStrength {
		t.Fatalf("selection = %s, want STRENGTH", panel.Selected())
	}
	if rows := panel.Rows(); rows[0].Score != "14" || rows[0].Modifier != "+1" || rows[1].Modifier != "-1" {
		t.Fatalf("rows = %+v", rows)
	}

	if err := panel.Select(context.Background(), client.AttributeWisdom); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if panel.Selected() != client.AttributeStrength {
		t.Fatal("Select must not change the checked option before Sync")
	}
	if len(forwarded) != 1 || forwarded[0] != client.AttributeWisdom {
		t.Fatalf("forwarded = %v", forwarded)
	}

	panel.Sync(&client.Record{})
	if panel.Selected() != client.AttributeNone {
		t.Fatalf("empty pin selection = %s, want NONE", panel.Selected())
	}
	if len(panel.Options()) != 7 {
		t.Fatalf("options = %v, want 7", panel.Options())
	}
}

func TestAttributesPanelRollForwards(t *testing.T) {
	calls := 0
	panel := NewAttributesPanel(AttributeCallbacks{OnRoll: func(context.Context) error {
		calls++
		return nil
	}})
	_ = panel.Roll(context.Background())
	if calls != 1 {
		t.Fatalf("roll calls = %d, want 1", calls)
	}
	if err := NewAttributesPanel(AttributeCallbacks{}).Roll(context.Background()); err != nil {
		t.Fatalf("Roll() without callback error = %v", err)
	}
}

func TestDetailsPanelBlurCommitsOnlyChanges(t *testing.T) {
	var commits []string
	panel := NewDetailsPanel(func(_ context.Context, detail client.Detail, value string) error {
		if detail != client.DetailName {
			t.Fatalf("detail = %s, want NAME", detail)
		}
		commits = append(commits, value)
		return nil
	})
	panel.Sync(&client.Record{Name: "Ada"})
	if panel.Value() != "Ada" {
		t.Fatalf("Value() = %q, want Ada", panel.Value())
	}

	if committed, _ := panel.Blur(context.Background(), "Ada"); committed {
		t.Fatal("unchanged value must not commit")
	}
	panel.Input("Adah")
	if committed, _ := panel.Blur(context.Background(), "Adah"); !committed {
		t.Fatal("changed value must commit")
	}
	if len(commits) != 1 || commits[0] != "Adah" {
		t.Fatalf("commits = %v", commits)
	}

	panel.Sync(nil)
	if panel.Value() != "" {
		t.Fatalf("Value() after nil sync = %q", panel.Value())
	}
}

func TestDetailsPanelBlurReturnsCallbackError(t *testing.T) {
	panel := NewDetailsPanel(func(context.Context, client.Detail, string) error { return errors.New("boom") })
	if _, err := panel.Blur(context.Background(), "x"); err == nil {
		t.Fatal("expected callback error")
	}
}

func render(t *testing.T, m PageModel) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Page(m).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestPageRendersPanelsForRecord(t *testing.T) {
	rec := sampleRecord()
	attrs := NewAttributesPanel(AttributeCallbacks{})
	details := NewDetailsPanel(nil)
	attrs.Sync(rec)
	details.Sync(rec)

	html := render(t, PageModel{
		State:      controller.State{Character: rec},
		Attributes: attrs,
		Details:    details,
		Printer:    i18n.Printer(i18n.DefaultTag()),
	})
	for _, want := range []string{
		`<h1>Character Management</h1>`,
		`Download Character`,
		`accept=".json"`,
		`value="Tess &lt;Vane&gt;"`,
		`name="setTo14" value="STRENGTH" checked`,
		`value="+2"`,
		`Roll Attributes`,
		`id="sheet"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "Tess <Vane>") {
		t.Fatal("name must be escaped")
	}
}

func TestSheetStates(t *testing.T) {
	printer := i18n.Printer(i18n.DefaultTag())

	loading := render(t, PageModel{State: controller.State{Loading: true}, Printer: printer})
	if !strings.Contains(loading, "Loading character data...") || strings.Contains(loading, "Download Character") {
		t.Fatalf("loading page:\n%s", loading)
	}

	failed := render(t, PageModel{State: controller.State{Error: controller.MsgRoll, ErrorKey: controller.KeyRoll}, Printer: printer})
	if !strings.Contains(failed, "Failed to roll attributes") || !strings.Contains(failed, `action="/actions/retry"`) {
		t.Fatalf("error page:\n%s", failed)
	}

	empty := render(t, PageModel{Printer: printer})
	if !strings.Contains(empty, `name="setTo14" value="NONE" checked`) {
		t.Fatalf("empty page should default to NONE:\n%s", empty)
	}
}

func TestSheetLocalizesLabelsAndErrors(t *testing.T) {
	pt, _ := i18n.ParseTag("pt-BR")
	html := render(t, PageModel{
		State:   controller.State{Error: controller.MsgLoad, ErrorKey: controller.KeyLoad},
		Printer: i18n.Printer(pt),
		Lang:    pt.String(),
	})
	for _, want := range []string{`lang="pt-BR"`, "Novo Personagem", "Falha ao carregar os dados do personagem", "Tentar novamente"} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q:\n%s", want, html)
		}
	}
}

func TestServerErrorTextIsNotLocalized(t *testing.T) {
	m := PageModel{
		State:   controller.State{Error: "Invalid JSON format"},
		Printer: i18n.Printer(language.MustParse("pt-BR")),
	}
	if got := m.ErrorText(); got != "Invalid JSON format" {
		t.Fatalf("ErrorText() = %q", got)
	}
}

func TestAttributesTableChecksExactlyOnePin(t *testing.T) {
	printer := i18n.Printer(i18n.DefaultTag())
	pins := append(NewAttributesPanel(AttributeCallbacks{}).Options(), "")
	for _, pinned := range pins {
		want := pinned
		if want == "" {
			want = client.AttributeNone
		}
		panel := NewAttributesPanel(AttributeCallbacks{})
		panel.Sync(&client.Record{ChangedAttribute: pinned})

		var buf bytes.Buffer
		if err := AttributesTable(PageModel{Attributes: panel, Printer: printer}).Render(context.Background(), &buf); err != nil {
			t.Fatalf("render: %v", err)
		}
		html := buf.String()
		if got := strings.Count(html, "checked"); got != 1 {
			t.Fatalf("pinned %q: checked radios = %d, want 1", pinned, got)
		}
		if !strings.Contains(html, `name="setTo14" value="`+string(want)+`" checked`) {
			t.Fatalf("pinned %q: %s not checked:\n%s", pinned, want, html)
		}
	}
}

func TestAttributesPanelSelectForwardsEveryOption(t *testing.T) {
	var forwarded []client.Attribute
	panel := NewAttributesPanel(AttributeCallbacks{
		OnChangeAttribute: func(_ context.Context, attr client.Attribute) error {
			forwarded = append(forwarded, attr)
			return nil
		},
	})
	options := panel.Options()
	for _, attr := range options {
		if err := panel.Select(context.Background(), attr); err != nil {
			t.Fatalf("Select(%s) error = %v", attr, err)
		}
	}
	if len(forwarded) != len(options) {
		t.Fatalf("forwarded = %v, want %v", forwarded, options)
	}
	for i := range options {
		if forwarded[i] != options[i] {
			t.Fatalf("forwarded = %v, want %v", forwarded, options)
		}
	}
	if forwarded[len(forwarded)-1] != client.AttributeNone {
		t.Fatalf("last option = %q, want NONE", forwarded[len(forwarded)-1])
	}
}
