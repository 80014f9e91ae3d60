package openapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formcollection/pkg/collection"
)

// ExtensionKey carries collection hints on an array property:
//
//	participants:
//	  type: array
//	  x-formcollection:
//	    itemClass: participant-row
//	    order: [firstName, lastName, dateOfBirth]
//	  items: {$ref: '#/components/schemas/Participant'}
const ExtensionKey = "x-formcollection"

// ErrNotCollection reports a property that is not an array of objects.
var ErrNotCollection = errors.New("openapi: property is not an array of objects")

// Derive builds the collection schema for ref's array property. Field order
// follows the extension's order list, then the remaining properties
// alphabetically. Read-only properties are skipped.
func Derive(ctx context.Context, doc Document, ref Ref) (collection.Schema, error) {
	spec, err := parse(ctx, doc)
	if err != nil {
		return collection.Schema{}, err
	}
	host, ok := spec.Components.Schemas[ref.Component]
	if !ok || host == nil || host.Value == nil {
		return collection.Schema{}, fmt.Errorf("openapi: component %q not found", ref.Component)
	}
	prop, ok := host.Value.Properties[ref.Property]
	if !ok || prop == nil || prop.Value == nil {
		return collection.Schema{}, fmt.Errorf("openapi: component %q has no property %q", ref.Component, ref.Property)
	}
	return fromArray(ref.Property, prop.Value)
}

// Collections lists every array-of-objects property in the document's
// components, sorted by reference.
func Collections(ctx context.Context, doc Document) ([]Ref, error) {
	spec, err := parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	var refs []Ref
	for component, host := range spec.Components.Schemas {
		if host == nil || host.Value == nil {
			continue
		}
		for property, prop := range host.Value.Properties {
			if prop == nil || prop.Value == nil || !isCollection(prop.Value) {
				continue
			}
			refs = append(refs, Ref{Component: component, Property: property})
		}
	}
	slices.SortFunc(refs, func(a, b Ref) int {
		return strings.Compare(a.String(), b.String())
	})
	return refs, nil
}

func parse(ctx context.Context, doc Document) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}
	return spec, nil
}

func isCollection(schema *openapi3.Schema) bool {
	return hasType(schema.Type, openapi3.TypeArray) &&
		schema.Items != nil && schema.Items.Value != nil &&
		len(schema.Items.Value.Properties) > 0
}

func fromArray(name string, array *openapi3.Schema) (collection.Schema, error) {
	if !isCollection(array) {
		return collection.Schema{}, fmt.Errorf("%w: %s", ErrNotCollection, name)
	}
	item := array.Items.Value

	hints := readHints(array.Extensions)
	schema := collection.Schema{
		Name:               name,
		ContainerID:        firstNonEmpty(hints["containerId"], name+"-container"),
		AddControlID:       hints["addControlId"],
		ItemClass:          firstNonEmpty(hints["itemClass"], name+"-item"),
		OrdinalField:       hints["ordinalField"],
		OrdinalLabelFormat: hints["ordinalLabelFormat"],
		Template:           hints["template"],
	}

	for _, field := range fieldOrder(item, array.Extensions) {
		prop := item.Properties[field]
		if prop == nil || prop.Value == nil || prop.Value.ReadOnly {
			continue
		}
		schema.Fields = append(schema.Fields, field)
		if input := inputType(prop.Value); input != "" {
			if schema.Inputs == nil {
				schema.Inputs = make(map[string]string)
			}
			schema.Inputs[field] = input
		}
	}

	if err := schema.Validate(); err != nil {
		return collection.Schema{}, fmt.Errorf("openapi: %w", err)
	}
	return schema, nil
}

func fieldOrder(item *openapi3.Schema, ext map[string]any) []string {
	var ordered []string
	seen := make(map[string]struct{})
	if hints, ok := ext[ExtensionKey].(map[string]any); ok {
		if list, ok := hints["order"].([]any); ok {
			for _, raw := range list {
				name, _ := raw.(string)
				if _, exists := item.Properties[name]; !exists {
					continue
				}
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				ordered = append(ordered, name)
			}
		}
	}

	var rest []string
	for name := range item.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(ordered, rest...)
}

func readHints(ext map[string]any) map[string]string {
	out := make(map[string]string)
	hints, ok := ext[ExtensionKey].(map[string]any)
	if !ok {
		return out
	}
	for key, value := range hints {
		if s, ok := value.(string); ok {
			out[key] = strings.TrimSpace(s)
		}
	}
	return out
}

// inputType maps OpenAPI types and formats onto HTML input types.
func inputType(schema *openapi3.Schema) string {
	switch schema.Format {
	case "date":
		return "date"
	case "date-time":
		return "datetime-local"
	case "email":
		return "email"
	case "uri", "url":
		return "url"
	}
	switch {
	case hasType(schema.Type, openapi3.TypeInteger), hasType(schema.Type, openapi3.TypeNumber):
		return "number"
	case hasType(schema.Type, openapi3.TypeBoolean):
		return "checkbox"
	}
	return ""
}

func hasType(types *openapi3.Types, want string) bool {
	if types == nil {
		return false
	}
	return slices.Contains(types.Slice(), want)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
