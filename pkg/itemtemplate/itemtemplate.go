package itemtemplate

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
	rendertemplate "github.com/goliatone/go-formcollection/pkg/render/template"
	gotemplate "github.com/goliatone/go-formcollection/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// GenericTemplate renders any schema from its field list.
const GenericTemplate = "generic"

// TemplatesFS exposes the built-in item templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Option configures a Set.
type Option func(*config)

type config struct {
	overrides fs.FS
	renderer  rendertemplate.TemplateRenderer
	sanitize  *bool
	data      map[string]any
}

// WithTemplatesFS layers caller templates over the built-in ones. Overrides are
// sanitized before they reach a document.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.overrides = files
		}
	}
}

// WithTemplatesDir is WithTemplatesFS for a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(path) == "" {
			return
		}
		cfg.overrides = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.renderer = renderer
		}
	}
}

// WithSanitize forces sanitization on or off regardless of template origin.
func WithSanitize(enabled bool) Option {
	return func(cfg *config) {
		cfg.sanitize = &enabled
	}
}

// WithData seeds values passed to every item template (for example
// remove_label).
func WithData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.data == nil {
			cfg.data = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.data[key] = value
		}
	}
}

// Set turns schemas into item factories backed by templates.
type Set struct {
	templates rendertemplate.TemplateRenderer
	sanitize  bool
	data      map[string]any
}

// New builds a Set over the embedded templates plus any overrides.
func New(options ...Option) (*Set, error) {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	renderer := cfg.renderer
	if renderer == nil {
		engineOptions := []gotemplate.Option{gotemplate.WithExtension(".tpl")}
		if cfg.overrides != nil {
			engineOptions = append(engineOptions, gotemplate.WithFS(cfg.overrides))
		}
		engineOptions = append(engineOptions, gotemplate.WithFS(TemplatesFS()))
		engine, err := gotemplate.New(engineOptions...)
		if err != nil {
			return nil, fmt.Errorf("itemtemplate: configure template renderer: %w", err)
		}
		renderer = engine
	}

	sanitize := cfg.overrides != nil
	if cfg.sanitize != nil {
		sanitize = *cfg.sanitize
	}
	return &Set{templates: renderer, sanitize: sanitize, data: cfg.data}, nil
}

// Render returns the markup of one item for schema.
func (s *Set) Render(schema collection.Schema) (string, error) {
	name := schema.Template
	if strings.TrimSpace(name) == "" {
		name = GenericTemplate
	}

	ctx := make(map[string]any, len(s.data)+8)
	for key, value := range s.data {
		ctx[key] = value
	}
	ctx["collection"] = schema.Name
	ctx["item_class"] = schema.ItemClass
	ctx["fields"] = fieldSpecs(schema)
	ctx["ordinal_field"] = schema.OrdinalField
	ctx["ordinal_label"] = schema.OrdinalLabelFormat != ""
	ctx["ordinal_format"] = schema.OrdinalLabelFormat
	// A fresh item renders as the first position; Resync relabels it.
	ctx["position"] = 0

	markup, err := s.templates.RenderTemplate(name, ctx)
	if err != nil {
		return "", fmt.Errorf("itemtemplate: render %q: %w", name, err)
	}
	if s.sanitize {
		markup = Sanitize(markup)
	}
	return markup, nil
}

// Factory returns a collection.Factory instantiating schema's template. Each
// call renders and parses anew, so items never share nodes.
func (s *Set) Factory(schema collection.Schema) collection.Factory {
	return func() (*html.Node, error) {
		markup, err := s.Render(schema)
		if err != nil {
			return nil, err
		}
		item, err := dom.FirstElement(markup)
		if err != nil {
			return nil, fmt.Errorf("itemtemplate: %s: %w", schema.Name, err)
		}
		return item, nil
	}
}

func fieldSpecs(schema collection.Schema) []map[string]any {
	specs := make([]map[string]any, 0, len(schema.Fields))
	for _, kind := range schema.Fields {
		specs = append(specs, map[string]any{
			"kind": kind,
			"type": schema.InputType(kind),
		})
	}
	return specs
}
