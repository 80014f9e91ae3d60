package collection

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-formcollection/pkg/dom"
)

// MarkupFactory returns a Factory that parses markup on every call, so each
// item is an independent tree.
func MarkupFactory(markup string) Factory {
	return func() (*html.Node, error) {
		return dom.FirstElement(markup)
	}
}
