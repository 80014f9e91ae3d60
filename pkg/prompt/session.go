package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
)

// Menu entries offered by Session.Run, in order.
const (
	MenuAdd    = "Add item"
	MenuEdit   = "Edit item"
	MenuRemove = "Remove item"
	MenuDone   = "Done"
)

// Session edits one collection interactively.
type Session struct {
	editor *collection.Editor
	driver Driver
}

// NewSession binds editor to driver.
func NewSession(editor *collection.Editor, driver Driver) *Session {
	return &Session{editor: editor, driver: driver}
}

// Run loops over the menu until the user picks Done. Aborting any prompt
// returns ErrAborted and leaves the edits made so far in place.
func (s *Session) Run(ctx context.Context) error {
	if s.editor == nil || s.driver == nil {
		return errors.New("prompt: session requires an editor and a driver")
	}
	if s.editor.Container() == nil {
		return collection.ErrContainerNotFound
	}
	for {
		if err := s.summary(ctx); err != nil {
			return err
		}
		options := []string{MenuAdd}
		if s.editor.Len() > 0 {
			options = append(options, MenuEdit, MenuRemove)
		}
		options = append(options, MenuDone)

		choice, err := s.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("%s (%d items)", s.editor.Schema().Name, s.editor.Len()),
			Options: options,
		})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(options) {
			return fmt.Errorf("prompt: menu choice %d out of range", choice)
		}

		switch options[choice] {
		case MenuAdd:
			item := s.editor.Add()
			if item == nil {
				return errors.New("prompt: could not add item")
			}
			if err := s.fill(ctx, item); err != nil {
				return err
			}
		case MenuEdit:
			index, err := s.pick(ctx, "Edit which item?")
			if err != nil {
				return err
			}
			if err := s.fill(ctx, s.editor.Items()[index]); err != nil {
				return err
			}
		case MenuRemove:
			index, err := s.pick(ctx, "Remove which item?")
			if err != nil {
				return err
			}
			ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Remove " + s.describe(index) + "?"})
			if err != nil {
				return err
			}
			if ok {
				s.editor.RemoveAt(index)
			}
		case MenuDone:
			return nil
		}
	}
}

func (s *Session) summary(ctx context.Context) error {
	if s.editor.Len() == 0 {
		return s.driver.Info(ctx, "No items yet.")
	}
	lines := make([]string, 0, s.editor.Len())
	for i := range s.editor.Items() {
		lines = append(lines, "  "+s.describe(i))
	}
	return s.driver.Info(ctx, strings.Join(lines, "\n"))
}

func (s *Session) pick(ctx context.Context, message string) (int, error) {
	items := s.editor.Items()
	options := make([]string, len(items))
	for i := range items {
		options[i] = s.describe(i)
	}
	index, err := s.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(items) {
		return 0, fmt.Errorf("prompt: item choice %d out of range", index)
	}
	return index, nil
}

// fill prompts for every non-ordinal field of item, offering current values
// as defaults.
func (s *Session) fill(ctx context.Context, item *html.Node) error {
	schema := s.editor.Schema()
	for _, field := range dom.QueryAll(item, dom.ByAttr(collection.FieldAttr)) {
		kind, _ := dom.Attr(field, collection.FieldAttr)
		if kind == "" || kind == schema.OrdinalField || dom.AttrOr(field, "type", "") == "hidden" {
			continue
		}

		var (
			value string
			err   error
		)
		if field.Data == "textarea" {
			value, err = s.driver.TextArea(ctx, TextAreaConfig{Message: kind, Default: dom.Value(field)})
		} else {
			value, err = s.driver.Input(ctx, InputConfig{
				Message:   kind,
				Default:   dom.Value(field),
				Validator: validatorFor(dom.AttrOr(field, "type", "text"), field),
			})
		}
		if err != nil {
			return err
		}
		dom.SetValue(field, value)
	}
	return nil
}

func (s *Session) describe(index int) string {
	schema := s.editor.Schema()
	label := schema.OrdinalLabel(index)
	if label == "" {
		label = "#" + strconv.Itoa(index+1)
	}
	items := s.editor.Items()
	if index < 0 || index >= len(items) {
		return label
	}
	var parts []string
	for _, field := range dom.QueryAll(items[index], dom.ByAttr(collection.FieldAttr)) {
		kind, _ := dom.Attr(field, collection.FieldAttr)
		if kind == schema.OrdinalField {
			continue
		}
		if value := strings.TrimSpace(dom.Value(field)); value != "" {
			parts = append(parts, value)
		}
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return label
	}
	return label + ": " + strings.Join(parts, " ")
}

func validatorFor(inputType string, field *html.Node) func(string) error {
	_, required := dom.Attr(field, "required")
	return func(value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			if required {
				return errors.New("a value is required")
			}
			return nil
		}
		switch inputType {
		case "date":
			if _, err := time.Parse(time.DateOnly, value); err != nil {
				return fmt.Errorf("expected a date like 2006-01-02")
			}
		case "number":
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return fmt.Errorf("expected a number")
			}
		}
		return nil
	}
}
