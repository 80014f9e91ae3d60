package collection_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
	"github.com/goliatone/go-formcollection/pkg/testsupport"
)

const participantRow = `
<div class="participant-row border rounded p-3 mb-3">
  <input type="text" class="form-control" data-field="firstName">
  <input type="text" class="form-control" data-field="lastName">
  <button type="button" data-collection-remove>Rimuovi</button>
  <input type="date" class="form-control" data-field="dateOfBirth">
</div>`

const dayCard = `
<div class="card mb-3 p-3 shadow-sm day-card">
  <h5 data-ordinal-label></h5>
  <input type="text" data-field="title" required>
  <textarea data-field="description" rows="3" required></textarea>
  <input type="hidden" data-field="dayNumber">
  <button type="button" data-collection-remove>Rimuovi giorno</button>
</div>`

func bookingPage(t *testing.T) *html.Node {
	t.Helper()
	doc, err := dom.ParseDocumentString(`<html><body><form>
<div id="participants-container"></div>
<button type="button" id="add-participant-btn">Aggiungi</button>
</form></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func itineraryUpdatePage(t *testing.T) *html.Node {
	t.Helper()
	var cards strings.Builder
	for i, title := range []string{"Arrivo", "Escursione"} {
		// Deliberately stale names: adoption must renumber them.
		fmt.Fprintf(&cards, `<div class="card day-card">
  <h5 data-ordinal-label>Giorno %d</h5>
  <input type="text" data-field="title" name="days[%d].title" value="%s">
  <textarea data-field="description" name="x">desc %d</textarea>
  <input type="hidden" data-field="dayNumber" name="days[%d].dayNumber" value="%d">
  <button type="button" data-collection-remove>Rimuovi giorno</button>
</div>`, i+7, i+5, title, i, i, i+9)
	}
	doc, err := dom.ParseDocumentString(`<html><body><div id="days-container">` + cards.String() + `</div></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func expectedNames(schema collection.Schema, count int) []string {
	var out []string
	for i := 0; i < count; i++ {
		for _, kind := range schema.Fields {
			out = append(out, schema.FieldName(i, kind))
		}
	}
	return out
}

func removeControl(t *testing.T, item *html.Node) *html.Node {
	t.Helper()
	control := dom.QueryFirst(item, dom.ByAttr(collection.RemoveAttr))
	if control == nil {
		t.Fatalf("item has no remove control")
	}
	return control
}

func TestParticipantsAddAddRemoveFirst(t *testing.T) {
	editor := collection.FromDocument(bookingPage(t), collection.Participants(), collection.MarkupFactory(participantRow))
	if editor.Len() != 0 {
		t.Fatalf("expected empty container, got %d items", editor.Len())
	}

	first := editor.Add()
	editor.Add()
	if !editor.Remove(removeControl(t, first)) {
		t.Fatalf("expected remove to succeed")
	}

	want := []string{
		"participants[0].firstName",
		"participants[0].lastName",
		"participants[0].dateOfBirth",
	}
	if diff := cmp.Diff(want, editor.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if err := editor.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestItineraryUpdateAdoptsExistingCards(t *testing.T) {
	editor := collection.FromDocument(itineraryUpdatePage(t), collection.Days(), collection.MarkupFactory(dayCard))
	if editor.Len() != 2 {
		t.Fatalf("expected 2 adopted cards, got %d", editor.Len())
	}
	editor.Add()

	if diff := cmp.Diff(expectedNames(collection.Days(), 3), editor.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	var labels, ordinals []string
	for _, item := range editor.Items() {
		labels = append(labels, dom.Text(dom.QueryFirst(item, dom.ByAttr(collection.OrdinalLabelAttr))))
		ordinals = append(ordinals, dom.Value(dom.QueryFirst(item, dom.ByAttrValue(collection.FieldAttr, "dayNumber"))))
	}
	if diff := cmp.Diff([]string{"Giorno 1", "Giorno 2", "Giorno 3"}, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, ordinals); diff != "" {
		t.Fatalf("ordinals mismatch (-want +got):\n%s", diff)
	}

	// Adopted cards keep their values; only position-derived attributes move.
	values := editor.Values()
	if values["days[0].title"] != "Arrivo" || values["days[1].title"] != "Escursione" {
		t.Fatalf("expected adopted titles preserved, got %v", values)
	}
	if values["days[1].description"] != "desc 1" {
		t.Fatalf("expected adopted description preserved, got %q", values["days[1].description"])
	}
}

func TestResyncTagsItemsWithCollectionName(t *testing.T) {
	editor := collection.FromDocument(itineraryUpdatePage(t), collection.Days(), collection.MarkupFactory(dayCard))
	editor.Add()

	var tags []string
	for _, item := range editor.Items() {
		tags = append(tags, dom.AttrOr(item, collection.CollectionAttr, ""))
	}
	if diff := cmp.Diff([]string{"days", "days", "days"}, tags); diff != "" {
		t.Fatalf("collection tags mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveMiddleDayRenumbers(t *testing.T) {
	editor := collection.FromDocument(itineraryUpdatePage(t), collection.Days(), collection.MarkupFactory(dayCard))
	editor.Add()

	middle := editor.Items()[1]
	if !editor.Click(removeControl(t, middle)) {
		t.Fatalf("expected bound remove control to fire")
	}

	items := editor.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(items))
	}
	if diff := cmp.Diff(expectedNames(collection.Days(), 2), editor.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	for i, item := range items {
		label := dom.Text(dom.QueryFirst(item, dom.ByAttr(collection.OrdinalLabelAttr)))
		if want := fmt.Sprintf("Giorno %d", i+1); label != want {
			t.Fatalf("card %d label = %q, want %q", i, label, want)
		}
	}
	if got := editor.Values()["days[0].title"]; got != "Arrivo" {
		t.Fatalf("expected first card untouched, got title %q", got)
	}
	if err := editor.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestRandomizedAddRemoveKeepsContiguousNames(t *testing.T) {
	editor := collection.FromDocument(bookingPage(t), collection.Participants(), collection.MarkupFactory(participantRow))

	// Positive entries add; anything else removes the item at -op.
	ops := []int{1, 1, 1, -1, 1, -0, 1, 1, -3, -2, -0, -0, 1, -0, -0, 1}
	for step, op := range ops {
		if op > 0 {
			editor.Add()
		} else {
			editor.RemoveAt(-op)
		}
		if diff := cmp.Diff(expectedNames(collection.Participants(), editor.Len()), editor.Names()); diff != "" {
			t.Fatalf("step %d: names mismatch (-want +got):\n%s", step, diff)
		}
	}
}

func TestResyncIsIdempotent(t *testing.T) {
	doc := itineraryUpdatePage(t)
	editor := collection.FromDocument(doc, collection.Days(), collection.MarkupFactory(dayCard))
	editor.Add()

	editor.Resync()
	first := testsupport.MustRender(t, doc)
	editor.Resync()
	second := testsupport.MustRender(t, doc)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("resync changed output (-first +second):\n%s", diff)
	}
}

func TestRemovingOnlyItemThenAddRestartsAtZero(t *testing.T) {
	editor := collection.FromDocument(bookingPage(t), collection.Participants(), collection.MarkupFactory(participantRow))
	only := editor.Add()
	if !editor.Remove(removeControl(t, only)) {
		t.Fatalf("expected remove")
	}
	if editor.Len() != 0 || len(editor.Names()) != 0 {
		t.Fatalf("expected empty container, got %v", editor.Names())
	}
	if editor.Container().FirstChild != nil {
		t.Fatalf("expected container without children")
	}

	editor.Add()
	if diff := cmp.Diff(expectedNames(collection.Participants(), 1), editor.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingContainerIsNoop(t *testing.T) {
	doc, err := dom.ParseDocumentString(`<html><body><p>nothing here</p></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	before, _ := dom.Render(doc)

	editor := collection.FromDocument(doc, collection.Participants(), collection.MarkupFactory(participantRow))
	if got := editor.Add(); got != nil {
		t.Fatalf("expected nil item without container")
	}
	if editor.Remove(dom.QueryFirst(doc, dom.ByTag("p"))) {
		t.Fatalf("expected remove to be a no-op")
	}
	editor.Resync()

	after, _ := dom.Render(doc)
	if before != after {
		t.Fatalf("document mutated without container")
	}
	if err := editor.Verify(); !errors.Is(err, collection.ErrContainerNotFound) {
		t.Fatalf("expected ErrContainerNotFound, got %v", err)
	}
}

func TestRemoveIgnoresForeignControls(t *testing.T) {
	doc := bookingPage(t)
	editor := collection.FromDocument(doc, collection.Participants(), collection.MarkupFactory(participantRow))
	editor.Add()

	if editor.Remove(dom.GetElementByID(doc, "add-participant-btn")) {
		t.Fatalf("expected control outside the container to be ignored")
	}
	if editor.Remove(nil) {
		t.Fatalf("expected nil control to be ignored")
	}
	if editor.Remove(editor.Container()) {
		t.Fatalf("expected container itself to be ignored")
	}

	stray, err := dom.FirstElement(participantRow)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if editor.Click(removeControl(t, stray)) {
		t.Fatalf("expected unbound control click to do nothing")
	}
	if editor.Len() != 1 {
		t.Fatalf("expected item count unchanged, got %d", editor.Len())
	}
}

func TestRemovedControlIsUnbound(t *testing.T) {
	editor := collection.FromDocument(bookingPage(t), collection.Participants(), collection.MarkupFactory(participantRow))
	item := editor.Add()
	editor.Add()
	control := removeControl(t, item)

	if !editor.Click(control) {
		t.Fatalf("expected first click to remove")
	}
	if editor.Click(control) {
		t.Fatalf("expected second click on detached control to do nothing")
	}
	if editor.Len() != 1 {
		t.Fatalf("expected one item left, got %d", editor.Len())
	}
}

func TestRemoveControlCarriesSubmitAddress(t *testing.T) {
	editor := collection.FromDocument(itineraryUpdatePage(t), collection.Days(), collection.MarkupFactory(dayCard))

	var got []string
	for _, item := range editor.Items() {
		control := removeControl(t, item)
		got = append(got, dom.AttrOr(control, "name", "")+"="+dom.AttrOr(control, "value", ""))
	}
	want := []string{"_collection_remove=days:0", "_collection_remove=days:1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("remove addresses mismatch (-want +got):\n%s", diff)
	}
}

func TestFactoryFailureIsNoop(t *testing.T) {
	failing := func() (*html.Node, error) { return nil, errors.New("boom") }
	editor := collection.FromDocument(bookingPage(t), collection.Participants(), failing)
	if editor.Add() != nil || editor.Len() != 0 {
		t.Fatalf("expected failing factory to leave container empty")
	}
}

func TestAddStampsItemClass(t *testing.T) {
	bare := collection.MarkupFactory(`<div><input data-field="firstName"></div>`)
	editor := collection.FromDocument(bookingPage(t), collection.Participants(), bare)
	item := editor.Add()
	if !dom.HasClass(item, "participant-row") {
		t.Fatalf("expected item class stamped on instantiated item")
	}
	if diff := cmp.Diff([]string{"participants[0].firstName"}, editor.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyReportsDrift(t *testing.T) {
	doc := itineraryUpdatePage(t)
	editor := collection.FromDocument(doc, collection.Days(), collection.MarkupFactory(dayCard))

	title := dom.QueryFirst(editor.Items()[1], dom.ByAttrValue(collection.FieldAttr, "title"))
	dom.SetAttr(title, "name", "days[7].title")
	label := dom.QueryFirst(editor.Items()[0], dom.ByAttr(collection.OrdinalLabelAttr))
	dom.SetText(label, "Giorno 9")

	err := editor.Verify()
	if err == nil {
		t.Fatalf("expected verify to fail")
	}
	for _, fragment := range []string{`"days[7].title"`, `"Giorno 9"`} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %s in %v", fragment, err)
		}
	}

	editor.Resync()
	if err := editor.Verify(); err != nil {
		t.Fatalf("expected resync to repair drift: %v", err)
	}
}

func TestWithoutResyncLeavesStaleItemsUntouched(t *testing.T) {
	doc := itineraryUpdatePage(t)
	before, _ := dom.Render(doc)

	editor := collection.FromDocument(doc, collection.Days(), collection.MarkupFactory(dayCard), collection.WithoutResync())
	after, _ := dom.Render(doc)
	if before != after {
		t.Fatalf("construction mutated the document")
	}
	if err := editor.Verify(); err == nil {
		t.Fatalf("expected stale page to fail verification")
	}
	control := dom.QueryFirst(editor.Items()[0], dom.ByAttr(collection.RemoveAttr))
	if editor.Click(control) {
		t.Fatalf("controls should stay unbound before resync")
	}

	editor.Resync()
	if err := editor.Verify(); err != nil {
		t.Fatalf("verify after resync: %v", err)
	}
	if !editor.Click(control) || editor.Len() != 1 {
		t.Fatalf("expected bound control to remove an item")
	}
}

func TestVerifyReportsMissingAndUndeclaredFields(t *testing.T) {
	doc, err := dom.ParseDocumentString(`<html><body><div id="participants-container">
<div class="participant-row">
  <input type="text" data-field="firstName" name="participants[0].firstName">
  <input type="text" data-field="nickname" name="participants[0].nickname">
  <button type="button" data-collection-remove>Rimuovi</button>
</div>
</div></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	editor := collection.FromDocument(doc, collection.Participants(), collection.MarkupFactory(participantRow))

	err = editor.Verify()
	if err == nil {
		t.Fatalf("expected verify to fail for an incomplete row")
	}
	for _, fragment := range []string{
		`field "nickname" is not declared by participants`,
		`field "lastName" is missing`,
		`field "dateOfBirth" is missing`,
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}

	// A row added from the template carries every declared field.
	editor.RemoveAt(0)
	editor.Add()
	if err := editor.Verify(); err != nil {
		t.Fatalf("verify template row: %v", err)
	}
}
