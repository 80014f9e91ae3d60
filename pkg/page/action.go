package page

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
)

// MaxHydratedItems bounds how many items a single post can rebuild.
const MaxHydratedItems = 200

// ActionKind names a posted editor operation.
type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
)

// Action is an add or remove request decoded from a form post.
type Action struct {
	Kind       ActionKind
	Collection string
	Index      int
}

// ParseAction reads the submit button that triggered a post. Remove controls
// win over the add control because a browser only submits the pressed button.
func ParseAction(values url.Values) (Action, bool) {
	if raw := values.Get(collection.RemoveParam); raw != "" {
		name, index, ok := collection.ParseRemoveValue(raw)
		if !ok {
			return Action{}, false
		}
		return Action{Kind: ActionRemove, Collection: name, Index: index}, true
	}
	if raw := strings.TrimSpace(values.Get(collection.ActionParam)); raw != "" {
		kind, name, ok := strings.Cut(raw, ":")
		if !ok || ActionKind(kind) != ActionAdd || name == "" {
			return Action{}, false
		}
		return Action{Kind: ActionAdd, Collection: name}, true
	}
	return Action{}, false
}

// Apply performs action against the page's editor.
func (p *Page) Apply(action Action) error {
	schema := p.Editor.Schema()
	if action.Collection != schema.Name {
		return fmt.Errorf("%w: %q on page %s", ErrUnknownAction, action.Collection, p.Definition.Name)
	}
	switch action.Kind {
	case ActionAdd:
		if p.Editor.Add() == nil {
			return fmt.Errorf("page: %s: add item failed", schema.Name)
		}
	case ActionRemove:
		if !p.Editor.RemoveAt(action.Index) {
			return fmt.Errorf("page: %s: no item at index %d", schema.Name, action.Index)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrUnknownAction, action.Kind)
	}
	return nil
}

// Hydrate rebuilds the editor's items from posted values. Only names carrying
// a declared field kind count towards a row. Items are created in ascending
// index order, so gaps left by a stale client collapse into a
// contiguous sequence. Ordinal fields are left to the editor. It returns the
// number of items created.
func Hydrate(editor *collection.Editor, values url.Values) int {
	schema := editor.Schema()
	rows := make(map[int]map[string]string)
	for name, submitted := range values {
		owner, index, kind, ok := collection.ParseFieldName(name)
		if !ok || owner != schema.Name || len(submitted) == 0 || !slices.Contains(schema.Fields, kind) {
			continue
		}
		row, exists := rows[index]
		if !exists {
			row = make(map[string]string)
			rows[index] = row
		}
		row[kind] = submitted[0]
	}

	indices := make([]int, 0, len(rows))
	for index := range rows {
		indices = append(indices, index)
	}
	slices.Sort(indices)
	if len(indices) > MaxHydratedItems {
		indices = indices[:MaxHydratedItems]
	}

	created := 0
	for _, index := range indices {
		item := editor.Add()
		if item == nil {
			break
		}
		created++
		row := rows[index]
		for _, field := range dom.QueryAll(item, dom.ByAttr(collection.FieldAttr)) {
			kind, _ := dom.Attr(field, collection.FieldAttr)
			if kind == "" || kind == schema.OrdinalField {
				continue
			}
			if value, ok := row[kind]; ok {
				dom.SetValue(field, value)
			}
		}
	}
	return created
}

// RowsToValues encodes rows as the indexed names a browser would post, for
// seeding a page with stored items.
func RowsToValues(schema collection.Schema, rows []map[string]string) url.Values {
	values := make(url.Values)
	for i, row := range rows {
		for _, kind := range schema.Fields {
			values.Set(schema.FieldName(i, kind), row[kind])
		}
	}
	return values
}
