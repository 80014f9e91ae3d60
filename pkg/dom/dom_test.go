package dom_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcollection/pkg/dom"
)

const sample = `<!doctype html><html><body>
<div id="days-container">
  <div class="card day-card"><h5 data-ordinal-label>Giorno 1</h5>
    <textarea data-field="description">first</textarea>
    <button type="button" class="btn" data-collection-remove>x</button>
  </div>
  <div class="card day-card"><input data-field="title" value="two"></div>
</div>
</body></html>`

func TestQueriesFollowDocumentOrder(t *testing.T) {
	doc, err := dom.ParseDocumentString(sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	container := dom.GetElementByID(doc, "days-container")
	if container == nil {
		t.Fatalf("expected container")
	}

	cards := dom.Children(container, dom.ByClass("day-card"))
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	var kinds []string
	for _, field := range dom.QueryAll(container, dom.ByAttr("data-field")) {
		kinds = append(kinds, dom.AttrOr(field, "data-field", ""))
	}
	if diff := cmp.Diff([]string{"description", "title"}, kinds); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	if got := dom.GetElementByID(doc, "missing"); got != nil {
		t.Fatalf("expected nil for missing id")
	}
	if got := dom.GetElementByID(doc, " "); got != nil {
		t.Fatalf("expected nil for blank id")
	}
}

func TestClosestStopsAtBoundary(t *testing.T) {
	doc, err := dom.ParseDocumentString(sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	container := dom.GetElementByID(doc, "days-container")
	button := dom.QueryFirst(container, dom.ByAttr("data-collection-remove"))

	card := dom.Closest(button, container, dom.ByClass("day-card"))
	if card == nil || !dom.HasClass(card, "card") {
		t.Fatalf("expected enclosing card, got %#v", card)
	}
	if got := dom.Closest(button, container, dom.ByTag("body")); got != nil {
		t.Fatalf("expected search to stop at boundary")
	}
	if got := dom.Closest(button, nil, dom.ByTag("body")); got == nil {
		t.Fatalf("expected unbounded search to reach body")
	}
}

func TestValueHandlesTextareaAndInputs(t *testing.T) {
	textarea, err := dom.FirstElement(`<textarea>old</textarea>`)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	dom.SetValue(textarea, "new <b>text</b>")
	if got := dom.Value(textarea); got != "new <b>text</b>" {
		t.Fatalf("textarea value = %q", got)
	}

	input, err := dom.FirstElement(`  <!-- c --><input type="hidden" value="1">`)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	dom.SetValue(input, "3")
	if got := dom.Value(input); got != "3" {
		t.Fatalf("input value = %q", got)
	}
	if input.Parent != nil {
		t.Fatalf("expected detached fragment element")
	}
}

func TestSetAttrKeepsOrder(t *testing.T) {
	n, err := dom.FirstElement(`<input name="a" data-field="title" class="x">`)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	dom.SetAttr(n, "name", "days[0].title")
	dom.AddClass(n, "x", "y")
	dom.RemoveAttr(n, "data-field")

	out, err := dom.Render(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<input name="days[0].title" class="x y"/>`
	if out != want {
		t.Fatalf("render mismatch\nwant: %s\n got: %s", want, out)
	}
}

func TestDetachAndText(t *testing.T) {
	n, err := dom.FirstElement(`<div><span>Giorno</span> <em>2</em></div>`)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if got := strings.TrimSpace(dom.Text(n)); got != "Giorno 2" {
		t.Fatalf("text = %q", got)
	}
	em := dom.QueryFirst(n, dom.ByTag("em"))
	dom.Detach(em)
	dom.Detach(em)
	if dom.Contains(n, em) {
		t.Fatalf("expected em detached")
	}
	dom.SetText(n, "Giorno 3")
	if got := dom.Text(n); got != "Giorno 3" {
		t.Fatalf("text after set = %q", got)
	}
}
