package itemtemplate_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
	"github.com/goliatone/go-formcollection/pkg/itemtemplate"
	"github.com/goliatone/go-formcollection/pkg/testsupport"
)

func fieldKinds(t *testing.T, factory collection.Factory) []string {
	t.Helper()
	item, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	var kinds []string
	for _, field := range dom.QueryAll(item, dom.ByAttr(collection.FieldAttr)) {
		kinds = append(kinds, dom.AttrOr(field, collection.FieldAttr, ""))
	}
	return kinds
}

func TestBuiltinTemplatesTagEveryField(t *testing.T) {
	set, err := itemtemplate.New()
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	for _, schema := range []collection.Schema{collection.Participants(), collection.Days()} {
		if diff := cmp.Diff(schema.Fields, fieldKinds(t, set.Factory(schema))); diff != "" {
			t.Fatalf("%s field kinds mismatch (-want +got):\n%s", schema.Name, diff)
		}
	}
}

func TestFactoryReturnsIndependentTrees(t *testing.T) {
	set, err := itemtemplate.New()
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	factory := set.Factory(collection.Days())
	a, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	b, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if a == b || a.Parent != nil || b.Parent != nil {
		t.Fatalf("expected two detached, distinct items")
	}
	if !dom.HasClass(a, "day-card") {
		t.Fatalf("expected day-card class, got %q", dom.AttrOr(a, "class", ""))
	}
	if dom.QueryFirst(a, dom.ByAttr(collection.OrdinalLabelAttr)) == nil {
		t.Fatalf("expected ordinal label in day template")
	}
}

func TestGenericTemplateFollowsSchema(t *testing.T) {
	set, err := itemtemplate.New(itemtemplate.WithData(map[string]any{"remove_label": "Drop"}))
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	schema := collection.Schema{
		Name:               "stops",
		ItemClass:          "stop-row",
		Fields:             []string{"city", "nights", "position"},
		OrdinalField:       "position",
		OrdinalLabelFormat: "Stop %d",
	}
	if diff := cmp.Diff(schema.Fields, fieldKinds(t, set.Factory(schema))); diff != "" {
		t.Fatalf("field kinds mismatch (-want +got):\n%s", diff)
	}

	markup, err := set.Render(schema)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(markup, `type="hidden" data-field="position"`) {
		t.Fatalf("expected ordinal field rendered hidden:\n%s", markup)
	}
	if !strings.Contains(markup, "Drop") {
		t.Fatalf("expected remove label from data:\n%s", markup)
	}
	doc := testsupport.MustParseDocument(t, "<html><body>"+markup+"</body></html>")
	if label := dom.QueryFirst(doc, dom.ByAttr(collection.OrdinalLabelAttr)); label == nil || dom.Text(label) != "Stop 1" {
		t.Fatalf("expected first-position label:\n%s", markup)
	}
}

func TestFreshItemsCarryFirstOrdinalLabel(t *testing.T) {
	set, err := itemtemplate.New()
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	item, err := set.Factory(collection.Days())()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	label := dom.QueryFirst(item, dom.ByAttr(collection.OrdinalLabelAttr))
	if got := strings.TrimSpace(dom.Text(label)); got != "Giorno 1" {
		t.Fatalf("label = %q, want %q", got, "Giorno 1")
	}

	markup, err := set.Render(collection.Participants())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(markup, collection.OrdinalLabelAttr) {
		t.Fatalf("participants have no ordinal label:\n%s", markup)
	}
}

func TestOverridesAreSanitized(t *testing.T) {
	overrides := fstest.MapFS{
		"participant.tpl": {Data: []byte(`<div class="participant-row" onclick="steal()">
<script>alert(1)</script>
<input type="text" data-field="firstName" onfocus="x()">
<button type="submit" data-collection-remove>Remove</button>
</div>`)},
	}
	set, err := itemtemplate.New(itemtemplate.WithTemplatesFS(overrides))
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	markup, err := set.Render(collection.Participants())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, banned := range []string{"<script", "onclick", "onfocus"} {
		if strings.Contains(markup, banned) {
			t.Fatalf("expected %q stripped:\n%s", banned, markup)
		}
	}

	doc := testsupport.MustParseDocument(t, "<html><body>"+markup+"</body></html>")
	if dom.QueryFirst(doc, dom.ByAttrValue(collection.FieldAttr, "firstName")) == nil {
		t.Fatalf("expected marker attribute to survive sanitization:\n%s", markup)
	}
	if dom.QueryFirst(doc, dom.ByAttr(collection.RemoveAttr)) == nil {
		t.Fatalf("expected remove marker to survive sanitization:\n%s", markup)
	}

	// Templates the override bundle lacks still come from the embedded set.
	if _, err := set.Render(collection.Days()); err != nil {
		t.Fatalf("expected fallback to embedded day template: %v", err)
	}
}

func TestTrustedOverridesSkipSanitizing(t *testing.T) {
	overrides := fstest.MapFS{
		"participant.tpl": {Data: []byte(`<div class="participant-row" onclick="track()"><input data-field="firstName"></div>`)},
	}
	set, err := itemtemplate.New(itemtemplate.WithTemplatesFS(overrides), itemtemplate.WithSanitize(false))
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	markup, err := set.Render(collection.Participants())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(markup, `onclick="track()"`) {
		t.Fatalf("trusted overrides render verbatim:\n%s", markup)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := itemtemplate.Sanitize("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
