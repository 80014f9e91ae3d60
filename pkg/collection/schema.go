package collection

import (
	"fmt"
	"strconv"
	"strings"
)

// Marker attributes shared by item templates, the editor and the browser
// runtime.
const (
	FieldAttr        = "data-field"
	OrdinalLabelAttr = "data-ordinal-label"
	RemoveAttr       = "data-collection-remove"
	CollectionAttr   = "data-collection"

	// RemoveParam is the submit name carried by remove controls so a form post
	// without scripting can address the item being removed.
	RemoveParam = "_collection_remove"
	// ActionParam is the submit name carried by add controls.
	ActionParam = "_collection_action"
)

// Schema describes one repeatable collection: how its container and items are
// found and which field kinds each item submits.
type Schema struct {
	// Name prefixes every submitted field: <Name>[i].<kind>.
	Name string `json:"name" yaml:"name"`
	// ContainerID is the stable id of the node holding the items.
	ContainerID string `json:"containerId" yaml:"containerId"`
	// AddControlID is the optional id of the add trigger.
	AddControlID string `json:"addControlId,omitempty" yaml:"addControlId,omitempty"`
	// ItemClass identifies item elements among the container's children.
	ItemClass string `json:"itemClass" yaml:"itemClass"`
	// Fields lists the field kinds an item carries, in template order.
	Fields []string `json:"fields" yaml:"fields"`
	// OrdinalField names the field kind whose value mirrors position+1.
	OrdinalField string `json:"ordinalField,omitempty" yaml:"ordinalField,omitempty"`
	// OrdinalLabelFormat is a fmt pattern taking position+1, rendered into the
	// element tagged data-ordinal-label. Empty leaves labels untouched.
	OrdinalLabelFormat string `json:"ordinalLabelFormat,omitempty" yaml:"ordinalLabelFormat,omitempty"`
	// Template names the item template used by the default factories.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	// Inputs maps field kinds to HTML input types for generic templates.
	Inputs map[string]string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// InputType returns the input type for kind, "text" when unset.
func (s Schema) InputType(kind string) string {
	if kind == s.OrdinalField {
		return "hidden"
	}
	if t := strings.TrimSpace(s.Inputs[kind]); t != "" {
		return t
	}
	return "text"
}

// Participants is the booking form's participant rows.
func Participants() Schema {
	return Schema{
		Name:         "participants",
		ContainerID:  "participants-container",
		AddControlID: "add-participant-btn",
		ItemClass:    "participant-row",
		Fields:       []string{"firstName", "lastName", "dateOfBirth"},
		Template:     "participant",
		Inputs:       map[string]string{"dateOfBirth": "date"},
	}
}

// Days is the itinerary editor's day cards.
func Days() Schema {
	return Schema{
		Name:               "days",
		ContainerID:        "days-container",
		AddControlID:       "add-day-btn",
		ItemClass:          "day-card",
		Fields:             []string{"title", "description", "dayNumber"},
		OrdinalField:       "dayNumber",
		OrdinalLabelFormat: "Giorno %d",
		Template:           "day",
	}
}

// Validate reports configuration mistakes that would make the naming contract
// impossible to honour.
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("collection: schema name is required")
	}
	if strings.ContainsAny(s.Name, "[]. ") {
		return fmt.Errorf("collection: schema name %q contains reserved characters", s.Name)
	}
	if strings.TrimSpace(s.ItemClass) == "" {
		return fmt.Errorf("collection: schema %q: item class is required", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("collection: schema %q: at least one field is required", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, field := range s.Fields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("collection: schema %q: empty field kind", s.Name)
		}
		if _, dup := seen[field]; dup {
			return fmt.Errorf("collection: schema %q: duplicate field kind %q", s.Name, field)
		}
		seen[field] = struct{}{}
	}
	if s.OrdinalField != "" {
		if _, ok := seen[s.OrdinalField]; !ok {
			return fmt.Errorf("collection: schema %q: ordinal field %q is not a declared field", s.Name, s.OrdinalField)
		}
	}
	if s.OrdinalLabelFormat != "" && !validLabelFormat(s.OrdinalLabelFormat) {
		return fmt.Errorf("collection: schema %q: ordinal label format %q must contain exactly one %%d and no other verbs", s.Name, s.OrdinalLabelFormat)
	}
	return nil
}

// validLabelFormat accepts formats the browser runtime renders identically:
// one %d and no other percent signs.
func validLabelFormat(format string) bool {
	return strings.Count(format, "%d") == 1 && strings.Count(format, "%") == 1
}

// FieldName builds the submission name for kind at position index.
func (s Schema) FieldName(index int, kind string) string {
	return s.Name + "[" + strconv.Itoa(index) + "]." + kind
}

// RemoveValue is the submit value stamped on the remove control of the item at
// index.
func (s Schema) RemoveValue(index int) string {
	return s.Name + ":" + strconv.Itoa(index)
}

// OrdinalLabel renders the visible ordinal for the item at index.
func (s Schema) OrdinalLabel(index int) string {
	if s.OrdinalLabelFormat == "" {
		return ""
	}
	return fmt.Sprintf(s.OrdinalLabelFormat, index+1)
}

// ParseRemoveValue splits a remove submit value into collection name and
// index.
func ParseRemoveValue(value string) (name string, index int, ok bool) {
	name, rawIndex, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found || name == "" {
		return "", 0, false
	}
	index, ok = parseIndex(rawIndex)
	if !ok {
		return "", 0, false
	}
	return name, index, true
}

// ParseFieldName splits a submitted name into collection, index and kind.
func ParseFieldName(name string) (collection string, index int, kind string, ok bool) {
	open := strings.IndexByte(name, '[')
	if open <= 0 {
		return "", 0, "", false
	}
	rest := name[open+1:]
	closeIdx := strings.Index(rest, "].")
	if closeIdx <= 0 {
		return "", 0, "", false
	}
	index, ok = parseIndex(rest[:closeIdx])
	if !ok {
		return "", 0, "", false
	}
	kind = rest[closeIdx+2:]
	if kind == "" {
		return "", 0, "", false
	}
	return name[:open], index, kind, true
}

// parseIndex accepts only the canonical decimal form FieldName produces, so
// "01" and "+1" never alias "1".
func parseIndex(raw string) (int, bool) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 || strconv.Itoa(index) != raw {
		return 0, false
	}
	return index, true
}
