// Package dom holds the small set of node-tree helpers the collection editor
// needs on top of golang.org/x/net/html: id/class/attribute lookups, closest
// ancestor search, attribute and text rewriting, fragment parsing.
package dom
