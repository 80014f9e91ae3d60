package collection

import (
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/dom"
)

// Factory instantiates one detached item subtree. Implementations must return
// a fresh tree on every call.
type Factory func() (*html.Node, error)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger routes editor diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithoutResync skips the construction-time resync so a document can be
// verified as found. Remove controls stay unbound until Resync runs.
func WithoutResync() Option {
	return func(e *Editor) {
		e.deferResync = true
	}
}

// Editor keeps the items under one container named after their position. It
// models a single UI thread and is not safe for concurrent use.
type Editor struct {
	container *html.Node
	schema    Schema
	factory   Factory
	logger    *slog.Logger

	bindings    map[*html.Node]func() bool
	deferResync bool
}

// New wraps container. A nil container produces an editor whose operations
// are no-ops. Items already present are adopted and resynced unless
// WithoutResync is given.
func New(container *html.Node, schema Schema, factory Factory, options ...Option) *Editor {
	e := &Editor{
		container: container,
		schema:    schema,
		factory:   factory,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		bindings:  make(map[*html.Node]func() bool),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if !e.deferResync {
		e.Resync()
	}
	return e
}

// FromDocument resolves the container through the schema's ContainerID.
func FromDocument(doc *html.Node, schema Schema, factory Factory, options ...Option) *Editor {
	return New(dom.GetElementByID(doc, schema.ContainerID), schema, factory, options...)
}

// Schema returns the collection description the editor was built with.
func (e *Editor) Schema() Schema {
	return e.schema
}

// Container returns the container handle, nil when it was never found.
func (e *Editor) Container() *html.Node {
	return e.container
}

// Items returns the current items in document order.
func (e *Editor) Items() []*html.Node {
	if e.container == nil {
		return nil
	}
	return dom.Children(e.container, dom.ByClass(e.schema.ItemClass))
}

// Len is the current item count.
func (e *Editor) Len() int {
	return len(e.Items())
}

// Add appends a freshly instantiated item and resyncs. It returns the new item,
// or nil when there is no container or the factory fails.
func (e *Editor) Add() *html.Node {
	if e.container == nil || e.factory == nil {
		return nil
	}
	item, err := e.factory()
	if err != nil {
		e.logger.Warn("collection: instantiate item", "collection", e.schema.Name, "error", err)
		return nil
	}
	if item == nil {
		return nil
	}
	dom.Detach(item)
	dom.AddClass(item, e.schema.ItemClass)

	index := e.Len()
	e.container.AppendChild(item)
	e.bindRemove(item)
	e.Resync()

	e.logger.Debug("collection: item added", "collection", e.schema.Name, "index", index)
	return item
}

// Remove detaches the item enclosing control and resyncs. It reports false,
// leaving the tree untouched, when control is not inside an item of this
// container.
func (e *Editor) Remove(control *html.Node) bool {
	item := e.itemOf(control)
	if item == nil {
		return false
	}
	index := e.indexOf(item)
	e.container.RemoveChild(item)
	e.unbind(item)
	e.Resync()

	e.logger.Debug("collection: item removed", "collection", e.schema.Name, "index", index)
	return true
}

// RemoveAt removes the item at index through its remove control, falling back
// to the item node itself when the template carries no control.
func (e *Editor) RemoveAt(index int) bool {
	items := e.Items()
	if index < 0 || index >= len(items) {
		return false
	}
	control := dom.QueryFirst(items[index], dom.ByAttr(RemoveAttr))
	if control == nil {
		control = items[index]
	}
	return e.Remove(control)
}

// Click dispatches a bound remove control, standing in for the browser click
// handler. Controls that were never bound do nothing.
func (e *Editor) Click(control *html.Node) bool {
	handler, ok := e.bindings[control]
	if !ok {
		return false
	}
	return handler()
}

// Resync rewrites every position-derived attribute so that item i carries
// <name>[i].<kind> names, ordinal label and value i+1, and a remove control
// addressed at i. Running it again without mutations changes nothing.
func (e *Editor) Resync() {
	for i, item := range e.Items() {
		dom.SetAttr(item, CollectionAttr, e.schema.Name)
		for _, field := range dom.QueryAll(item, dom.ByAttr(FieldAttr)) {
			kind, _ := dom.Attr(field, FieldAttr)
			if kind == "" {
				continue
			}
			dom.SetAttr(field, "name", e.schema.FieldName(i, kind))
			if kind == e.schema.OrdinalField {
				dom.SetValue(field, strconv.Itoa(i+1))
			}
		}

		if e.schema.OrdinalLabelFormat != "" {
			if label := dom.QueryFirst(item, dom.ByAttr(OrdinalLabelAttr)); label != nil {
				dom.SetText(label, e.schema.OrdinalLabel(i))
			}
		}

		if control := dom.QueryFirst(item, dom.ByAttr(RemoveAttr)); control != nil {
			dom.SetAttr(control, "name", RemoveParam)
			dom.SetAttr(control, "value", e.schema.RemoveValue(i))
		}
		e.bindRemove(item)
	}
}

// bindRemove attaches the click handler to item's remove control unless one
// is already bound.
func (e *Editor) bindRemove(item *html.Node) {
	control := dom.QueryFirst(item, dom.ByAttr(RemoveAttr))
	if control == nil {
		return
	}
	if _, bound := e.bindings[control]; bound {
		return
	}
	e.bindings[control] = func() bool {
		return e.Remove(control)
	}
}

func (e *Editor) unbind(item *html.Node) {
	for _, control := range dom.QueryAll(item, dom.ByAttr(RemoveAttr)) {
		delete(e.bindings, control)
	}
}

// itemOf finds the item of this container enclosing control.
func (e *Editor) itemOf(control *html.Node) *html.Node {
	if e.container == nil || control == nil {
		return nil
	}
	return dom.Closest(control, e.container, func(n *html.Node) bool {
		return n.Parent == e.container && dom.HasClass(n, e.schema.ItemClass)
	})
}

func (e *Editor) indexOf(item *html.Node) int {
	for i, candidate := range e.Items() {
		if candidate == item {
			return i
		}
	}
	return -1
}
