package page

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	theme "github.com/goliatone/go-theme"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
	"github.com/goliatone/go-formcollection/pkg/itemtemplate"
	rendertemplate "github.com/goliatone/go-formcollection/pkg/render/template"
	gotemplate "github.com/goliatone/go-formcollection/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// DefaultTemplate is the page shell used when a definition names none.
const DefaultTemplate = "collection"

// TemplatesFS exposes the built-in page templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Definition describes one editable page.
type Definition struct {
	Name        string
	Path        string
	Title       string
	Heading     string
	AddLabel    string
	SubmitLabel string
	// Template names the page shell; a theme partial "page.<Name>" overrides it.
	Template string
	Schema   collection.Schema
}

// Booking is the participant entry page.
func Booking() Definition {
	return Definition{
		Name:     "booking",
		Path:     "/booking",
		Title:    "Prenotazione viaggio",
		Heading:  "Partecipanti",
		AddLabel: "Aggiungi partecipante",
		Schema:   collection.Participants(),
	}
}

// Itinerary is the day card editor.
func Itinerary() Definition {
	return Definition{
		Name:     "itinerary",
		Path:     "/itinerary",
		Title:    "Itinerario",
		Heading:  "Giorni",
		AddLabel: "Aggiungi giorno",
		Schema:   collection.Days(),
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger routes page and editor diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTemplatesFS layers page templates over the built-in shells.
func WithTemplatesFS(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.overrides = files
		}
	}
}

// WithTemplateRenderer replaces the page template engine entirely.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(r *Renderer) {
		if renderer != nil {
			r.templates = renderer
		}
	}
}

// WithItemTemplates supplies the item factories.
func WithItemTemplates(set *itemtemplate.Set) Option {
	return func(r *Renderer) {
		if set != nil {
			r.items = set
		}
	}
}

// WithThemeConfig applies resolved theme tokens, partials and assets.
func WithThemeConfig(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		r.theme = cfg
	}
}

// WithHiddenFields adds hidden inputs to every page.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(r *Renderer) {
		r.hidden = MergeHiddenFields(r.hidden, fields...)
	}
}

// WithRuntimeURL adds a script tag loading the browser runtime.
func WithRuntimeURL(url string) Option {
	return func(r *Renderer) {
		r.runtimeURL = strings.TrimSpace(url)
	}
}

// Renderer builds page documents with an attached collection editor.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	overrides  fs.FS
	items      *itemtemplate.Set
	theme      *theme.RendererConfig
	hidden     map[string]string
	runtimeURL string
	logger     *slog.Logger
}

// New builds a Renderer over the embedded page and item templates.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.templates == nil {
		engineOptions := []gotemplate.Option{gotemplate.WithExtension(".tpl")}
		if r.overrides != nil {
			engineOptions = append(engineOptions, gotemplate.WithFS(r.overrides))
		}
		engineOptions = append(engineOptions, gotemplate.WithFS(TemplatesFS()))
		engine, err := gotemplate.New(engineOptions...)
		if err != nil {
			return nil, fmt.Errorf("page: configure template renderer: %w", err)
		}
		r.templates = engine
	}
	if r.items == nil {
		set, err := itemtemplate.New()
		if err != nil {
			return nil, fmt.Errorf("page: %w", err)
		}
		r.items = set
	}
	return r, nil
}

// Page is a parsed page document and the editor over its collection.
type Page struct {
	Definition Definition
	Document   *html.Node
	Editor     *collection.Editor
}

// HTML serialises the current document.
func (p *Page) HTML() (string, error) {
	return dom.Render(p.Document)
}

// Build renders def's shell, parses it and attaches an editor. extra hidden
// fields apply to this page only, for example a per-request CSRF token.
func (r *Renderer) Build(def Definition, extra ...HiddenField) (*Page, error) {
	if err := def.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("page: %s: %w", def.Name, err)
	}

	itemMarkup, err := r.items.Render(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("page: %s: %w", def.Name, err)
	}

	name := r.templateName(def)
	markup, err := r.templates.RenderTemplate(name, r.context(def, itemMarkup, extra))
	if err != nil {
		return nil, fmt.Errorf("page: render %s: %w", def.Name, err)
	}
	doc, err := dom.ParseDocumentString(markup)
	if err != nil {
		return nil, fmt.Errorf("page: parse %s: %w", def.Name, err)
	}

	editor := collection.FromDocument(doc, def.Schema, r.items.Factory(def.Schema), collection.WithLogger(r.logger))
	if editor.Container() == nil {
		return nil, fmt.Errorf("page: %s: %w: %s", def.Name, collection.ErrContainerNotFound, def.Schema.ContainerID)
	}
	return &Page{Definition: def, Document: doc, Editor: editor}, nil
}

func (r *Renderer) templateName(def Definition) string {
	if r.theme != nil {
		if partial := strings.TrimSpace(r.theme.Partials["page."+def.Name]); partial != "" {
			return partial
		}
	}
	if strings.TrimSpace(def.Template) != "" {
		return def.Template
	}
	return DefaultTemplate
}

func (r *Renderer) context(def Definition, itemMarkup string, extra []HiddenField) map[string]any {
	return map[string]any{
		"title":         def.Title,
		"heading":       def.Heading,
		"add_label":     def.AddLabel,
		"submit_label":  def.SubmitLabel,
		"action":        def.Path,
		"form_id":       def.Name + "-form",
		"schema":        def.Schema,
		"action_param":  collection.ActionParam,
		"item_template": itemMarkup,
		"hidden_fields": SortedHiddenFields(MergeHiddenFields(r.hidden, extra...)),
		"theme":         themeContext(r.theme),
		"runtime_url":   r.runtimeURL,
	}
}

// ErrUnknownAction reports a posted action that does not address the page's
// collection.
var ErrUnknownAction = errors.New("page: unknown collection action")
