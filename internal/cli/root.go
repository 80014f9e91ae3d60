package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection"
	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/dom"
	"github.com/goliatone/go-formcollection/pkg/prompt"
)

// App carries the persistent flags shared by every command.
type App struct {
	Collection   string
	ConfigDir    string
	OpenAPI      string
	Ref          string
	TemplatesDir string
	Trusted      bool
	Output       string
	Write        bool
	Verbose      bool

	// newDriver builds the prompt driver for edit; tests replace it.
	newDriver func(out io.Writer) prompt.Driver
}

// NewRootCmd builds the formcollection command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{newDriver: prompt.NewSurveyDriver})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "formcollection",
		Short:        "Renumber and edit repeating form sections in HTML files",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Renumber participant rows in place
  formcollection resync booking.html --collection participants -w

  # Append two day cards and print the result
  formcollection add itinerary.html --collection days --count 2

  # Check an update page without changing it
  formcollection inspect itinerary.html --collection days

  # Use a collection derived from an OpenAPI document
  formcollection inspect page.html --openapi api.yaml --ref Booking.participants
`),
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&app.Collection, "collection", "c", envOr("FORMCOLLECTION_COLLECTION", ""), "Collection name (participants, days, or a configured one)")
	flags.StringVar(&app.ConfigDir, "config", envOr("FORMCOLLECTION_CONFIG", ""), "Directory of YAML/JSON collection definitions")
	flags.StringVar(&app.OpenAPI, "openapi", "", "OpenAPI document (path or URL) to derive the collection from")
	flags.StringVar(&app.Ref, "ref", "", "Component.property inside the OpenAPI document")
	flags.StringVar(&app.TemplatesDir, "templates", "", "Directory of item template overrides")
	flags.BoolVar(&app.Trusted, "trust-templates", false, "Insert template overrides without sanitizing them")
	flags.StringVarP(&app.Output, "output", "o", "", "Write the result to this file instead of stdout")
	flags.BoolVarP(&app.Write, "write", "w", false, "Rewrite the input file in place")
	flags.BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newResyncCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newInspectCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newCollectionsCmd(app))

	return cmd
}

func (app *App) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if app.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// htmlDocument remembers whether the input was a full document so output
// keeps the same shape.
type htmlDocument struct {
	path     string
	root     *html.Node
	fragment bool
}

var documentPrefix = regexp.MustCompile(`(?is)^\s*(<!--.*?-->\s*)*(<!doctype|<html)`)

func loadDocument(path string) (*htmlDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read %s: %w", path, err)
	}
	root, err := dom.ParseDocument(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("cli: parse %s: %w", path, err)
	}
	return &htmlDocument{path: path, root: root, fragment: !documentPrefix.Match(raw)}, nil
}

func (d *htmlDocument) render() (string, error) {
	if !d.fragment {
		return dom.Render(d.root)
	}
	body := dom.QueryFirst(d.root, dom.ByTag("body"))
	if body == nil {
		return dom.Render(d.root)
	}
	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		out, err := dom.Render(c)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// openEditor resolves the schema from flags and attaches an editor to the
// document at path.
func (app *App) openEditor(cmd *cobra.Command, path string, options ...collection.Option) (*htmlDocument, *collection.Editor, error) {
	schema, err := app.schema(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	doc, err := loadDocument(path)
	if err != nil {
		return nil, nil, err
	}
	editor, err := formcollection.OpenEditor(doc.root, schema, formcollection.EditorOptions{
		Logger:         app.logger(cmd),
		TemplatesDir:   app.TemplatesDir,
		TrustTemplates: app.Trusted,
		Options:        options,
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, editor, nil
}

func (app *App) schema(ctx context.Context) (collection.Schema, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if app.Collection == "" && app.OpenAPI == "" {
		return collection.Schema{}, fmt.Errorf("cli: --collection is required")
	}
	return formcollection.ResolveSchema(ctx, formcollection.SchemaRequest{
		Collection: app.Collection,
		ConfigDir:  app.ConfigDir,
		OpenAPI:    app.OpenAPI,
		Ref:        app.Ref,
	})
}

// writeDocument sends the rendered document to --output, back to the input
// with --write, or to stdout.
func (app *App) writeDocument(cmd *cobra.Command, doc *htmlDocument) error {
	markup, err := doc.render()
	if err != nil {
		return fmt.Errorf("cli: render %s: %w", doc.path, err)
	}
	target := app.Output
	if target == "" && app.Write {
		target = doc.path
	}
	if target == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), markup)
		return err
	}
	if err := os.WriteFile(target, []byte(markup), 0o644); err != nil {
		return fmt.Errorf("cli: write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", target)
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
