package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Matcher reports whether an element node satisfies a lookup.
type Matcher func(n *html.Node) bool

// ParseDocument parses a full HTML document.
func ParseDocument(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return doc, nil
}

// ParseDocumentString is ParseDocument for in-memory markup.
func ParseDocumentString(markup string) (*html.Node, error) {
	return ParseDocument(strings.NewReader(markup))
}

// ParseFragment parses markup in a <body> context and returns the top level
// nodes, detached from any parent.
func ParseFragment(markup string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// FirstElement parses markup and returns its first element, detached. Leading
// whitespace and comments are skipped.
func FirstElement(markup string) (*html.Node, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		if node.Type == html.ElementNode {
			return node, nil
		}
	}
	return nil, fmt.Errorf("dom: fragment has no element")
}

// Render serialises n (and its subtree) as HTML.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

// ByID matches elements whose id attribute equals id.
func ByID(id string) Matcher {
	return func(n *html.Node) bool {
		value, ok := Attr(n, "id")
		return ok && value == id
	}
}

// ByClass matches elements carrying class in their class list.
func ByClass(class string) Matcher {
	return func(n *html.Node) bool {
		return HasClass(n, class)
	}
}

// ByAttr matches elements that carry key, whatever its value.
func ByAttr(key string) Matcher {
	return func(n *html.Node) bool {
		_, ok := Attr(n, key)
		return ok
	}
}

// ByAttrValue matches elements where key equals value.
func ByAttrValue(key, value string) Matcher {
	return func(n *html.Node) bool {
		got, ok := Attr(n, key)
		return ok && got == value
	}
}

// ByTag matches elements by tag name.
func ByTag(tag string) Matcher {
	tag = strings.ToLower(tag)
	return func(n *html.Node) bool {
		return n.Data == tag
	}
}

// GetElementByID walks root and returns the first element with the given id.
func GetElementByID(root *html.Node, id string) *html.Node {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return QueryFirst(root, ByID(id))
}

// QueryFirst returns the first descendant element of root (root excluded)
// matching m in document order.
func QueryFirst(root *html.Node, m Matcher) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if m(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// QueryAll returns every descendant element of root (root excluded) matching m
// in document order.
func QueryAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if m(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Children returns the element children of n matching m.
func Children(n *html.Node, m Matcher) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (m == nil || m(c)) {
			out = append(out, c)
		}
	}
	return out
}

// Closest returns n or the nearest element ancestor matching m. The search
// stops before leaving boundary; a nil boundary searches up to the root.
func Closest(n, boundary *html.Node, m Matcher) *html.Node {
	for cur := n; cur != nil && cur != boundary; cur = cur.Parent {
		if cur.Type == html.ElementNode && m(cur) {
			return cur
		}
	}
	return nil
}

// Contains reports whether n sits inside root's subtree.
func Contains(root, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}

// walk visits descendant elements of root in document order until visit
// returns false.
func walk(root *html.Node, visit func(*html.Node) bool) {
	if root == nil {
		return
	}
	var rec func(*html.Node) bool
	rec = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && !visit(c) {
				return false
			}
			if !rec(c) {
				return false
			}
		}
		return true
	}
	rec(root)
}
