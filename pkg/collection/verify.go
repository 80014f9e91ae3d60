package collection

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcollection/pkg/dom"
)

// ErrContainerNotFound reports an editor whose container handle could not be
// resolved.
var ErrContainerNotFound = errors.New("collection: container not found")

// Names returns every field name under the container in document order.
func (e *Editor) Names() []string {
	var names []string
	for _, item := range e.Items() {
		for _, field := range dom.QueryAll(item, dom.ByAttr(FieldAttr)) {
			if name, ok := dom.Attr(field, "name"); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// Values collects field values keyed by submission name, mirroring what a
// browser would post for the container.
func (e *Editor) Values() map[string]string {
	out := make(map[string]string)
	for _, item := range e.Items() {
		for _, field := range dom.QueryAll(item, dom.ByAttr(FieldAttr)) {
			name, ok := dom.Attr(field, "name")
			if !ok {
				continue
			}
			out[name] = dom.Value(field)
		}
	}
	return out
}

// Verify checks that every item carries exactly the schema's fields, each
// named for the item's index, along with a matching ordinal label and value.
// All violations are returned joined.
func (e *Editor) Verify() error {
	if e.container == nil {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, e.schema.ContainerID)
	}
	var errs []error
	for i, item := range e.Items() {
		seen := make(map[string]int)
		for _, field := range dom.QueryAll(item, dom.ByAttr(FieldAttr)) {
			kind, _ := dom.Attr(field, FieldAttr)
			if kind == "" {
				continue
			}
			if seen[kind] == 0 && !slices.Contains(e.schema.Fields, kind) {
				errs = append(errs, fmt.Errorf("item %d: field %q is not declared by %s", i, kind, e.schema.Name))
			}
			seen[kind]++
			want := e.schema.FieldName(i, kind)
			if got := dom.AttrOr(field, "name", ""); got != want {
				errs = append(errs, fmt.Errorf("item %d: field %q named %q, want %q", i, kind, got, want))
			}
			if kind == e.schema.OrdinalField {
				if got := dom.Value(field); got != strconv.Itoa(i+1) {
					errs = append(errs, fmt.Errorf("item %d: ordinal value %q, want %d", i, got, i+1))
				}
			}
		}
		for _, kind := range e.schema.Fields {
			switch {
			case seen[kind] == 0:
				errs = append(errs, fmt.Errorf("item %d: field %q is missing", i, kind))
			case seen[kind] > 1:
				errs = append(errs, fmt.Errorf("item %d: field %q appears %d times", i, kind, seen[kind]))
			}
		}
		if e.schema.OrdinalLabelFormat != "" {
			if label := dom.QueryFirst(item, dom.ByAttr(OrdinalLabelAttr)); label != nil {
				if got, want := strings.TrimSpace(dom.Text(label)), e.schema.OrdinalLabel(i); got != want {
					errs = append(errs, fmt.Errorf("item %d: ordinal label %q, want %q", i, got, want))
				}
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("collection: %s: %w", e.schema.Name, errors.Join(errs...))
}
