package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the value of key or fallback when absent.
func AttrOr(n *html.Node, key, fallback string) string {
	if value, ok := Attr(n, key); ok {
		return value
	}
	return fallback
}

// SetAttr writes key=value, replacing an existing value in place so attribute
// order stays stable across rewrites.
func SetAttr(n *html.Node, key, value string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr drops key from n.
func RemoveAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			continue
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
}

// HasClass reports whether class appears in n's class list.
func HasClass(n *html.Node, class string) bool {
	value, ok := Attr(n, "class")
	if !ok || class == "" {
		return false
	}
	for _, token := range strings.Fields(value) {
		if token == class {
			return true
		}
	}
	return false
}

// AddClass appends class to n's class list when missing.
func AddClass(n *html.Node, classes ...string) {
	current := strings.Fields(AttrOr(n, "class", ""))
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" || HasClass(n, class) {
			continue
		}
		current = append(current, class)
		SetAttr(n, "class", strings.Join(current, " "))
	}
}

// Text returns the concatenated text content of n's subtree.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(Text(c))
	}
	return b.String()
}

// SetText replaces n's children with a single text node.
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Value reads a form control's current value: textarea content, or the value
// attribute for everything else.
func Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Data == "textarea" {
		return Text(n)
	}
	return AttrOr(n, "value", "")
}

// SetValue writes a form control's value.
func SetValue(n *html.Node, value string) {
	if n == nil {
		return
	}
	if n.Data == "textarea" {
		SetText(n, value)
		return
	}
	SetAttr(n, "value", value)
}

// Detach removes n from its parent. Detaching a parentless node is a no-op.
func Detach(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}
