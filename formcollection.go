package formcollection

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/config"
	"github.com/goliatone/go-formcollection/pkg/itemtemplate"
	"github.com/goliatone/go-formcollection/pkg/openapi"
)

// RemoteTimeout caps OpenAPI documents fetched over HTTP.
const RemoteTimeout = 10 * time.Second

// SchemaRequest selects a collection schema from bundled definitions, a
// definitions directory or an OpenAPI document.
type SchemaRequest struct {
	// Collection is the definition name, or the array property name when
	// deriving from OpenAPI.
	Collection string
	// ConfigDir layers YAML/JSON definitions over the bundled ones.
	ConfigDir string
	// OpenAPI is a file path or http(s) URL. When set it takes precedence over
	// definitions.
	OpenAPI string
	// Ref is the Component.property to derive; when empty the document's
	// collections are searched for a property named Collection.
	Ref string
}

// ResolveSchema turns req into a validated schema.
func ResolveSchema(ctx context.Context, req SchemaRequest) (collection.Schema, error) {
	if strings.TrimSpace(req.OpenAPI) != "" {
		return schemaFromOpenAPI(ctx, req)
	}

	store := config.Default()
	if dir := strings.TrimSpace(req.ConfigDir); dir != "" {
		extra, err := config.LoadFS(os.DirFS(dir))
		if err != nil {
			return collection.Schema{}, err
		}
		store.Merge(extra)
	}
	return store.Collection(req.Collection)
}

func schemaFromOpenAPI(ctx context.Context, req SchemaRequest) (collection.Schema, error) {
	src, err := openapi.ParseLocation(req.OpenAPI)
	if err != nil {
		return collection.Schema{}, err
	}
	doc, err := openapi.NewLoader(openapi.WithHTTPFallback(RemoteTimeout)).Load(ctx, src)
	if err != nil {
		return collection.Schema{}, err
	}

	if strings.TrimSpace(req.Ref) != "" {
		ref, err := openapi.ParseRef(req.Ref)
		if err != nil {
			return collection.Schema{}, err
		}
		return openapi.Derive(ctx, doc, ref)
	}

	refs, err := openapi.Collections(ctx, doc)
	if err != nil {
		return collection.Schema{}, err
	}
	var matches []openapi.Ref
	for _, ref := range refs {
		if req.Collection == "" || ref.Property == req.Collection {
			matches = append(matches, ref)
		}
	}
	switch len(matches) {
	case 0:
		return collection.Schema{}, fmt.Errorf("%w %q in %s", config.ErrUnknownCollection, req.Collection, doc.Location())
	case 1:
		return openapi.Derive(ctx, doc, matches[0])
	default:
		return collection.Schema{}, fmt.Errorf("formcollection: %d collections match %q in %s, pass a Component.property ref", len(matches), req.Collection, doc.Location())
	}
}

// EditorOptions configures OpenEditor.
type EditorOptions struct {
	Logger       *slog.Logger
	TemplatesDir string
	RemoveLabel  string
	// TrustTemplates renders TemplatesDir overrides without sanitizing.
	TrustTemplates bool
	// Options are passed through to the editor after the logger.
	Options []collection.Option
}

// OpenEditor attaches an editor to doc using the item templates for schema.
// It fails with collection.ErrContainerNotFound when doc lacks the container.
func OpenEditor(doc *html.Node, schema collection.Schema, opts EditorOptions) (*collection.Editor, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	templateOptions := []itemtemplate.Option{itemtemplate.WithTemplatesDir(opts.TemplatesDir)}
	if opts.TrustTemplates {
		templateOptions = append(templateOptions, itemtemplate.WithSanitize(false))
	}
	if opts.RemoveLabel != "" {
		templateOptions = append(templateOptions, itemtemplate.WithData(map[string]any{"remove_label": opts.RemoveLabel}))
	}
	set, err := itemtemplate.New(templateOptions...)
	if err != nil {
		return nil, err
	}
	editorOptions := append([]collection.Option{collection.WithLogger(opts.Logger)}, opts.Options...)
	editor := collection.FromDocument(doc, schema, set.Factory(schema), editorOptions...)
	if editor.Container() == nil {
		return nil, fmt.Errorf("formcollection: %w: #%s", collection.ErrContainerNotFound, schema.ContainerID)
	}
	return editor, nil
}
