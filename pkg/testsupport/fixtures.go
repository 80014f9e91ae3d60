package testsupport

import (
	"bytes"
	"io"
	"testing"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/dom"
)

// MustParseDocument parses markup into a document tree, failing the test on
// error.
func MustParseDocument(t *testing.T, markup string) *html.Node {
	t.Helper()

	doc, err := dom.ParseDocumentString(markup)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// MustRender serialises n, failing the test on error.
func MustRender(t *testing.T, n *html.Node) string {
	t.Helper()

	out, err := dom.Render(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

// FieldNames returns the name attribute of every element under root that
// carries one, in document order.
func FieldNames(root *html.Node, marker string) []string {
	var names []string
	for _, n := range dom.QueryAll(root, dom.ByAttr(marker)) {
		if name, ok := dom.Attr(n, "name"); ok {
			names = append(names, name)
		}
	}
	return names
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
