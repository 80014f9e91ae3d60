// Package collection keeps repeatable form sections (participant rows, day
// cards) indexed by position.
//
// An Editor wraps a container node. Items are the container's element
// children carrying the schema's item class; fields inside an item are tagged
// with data-field="<kind>". After every Add or Remove the editor resyncs, so
// the item at position i submits <collection>[i].<kind>, which is the shape
// indexed-collection form binders expect:
//
//	doc, _ := dom.ParseDocumentString(page)
//	editor := collection.FromDocument(doc, collection.Days(), factory)
//	editor.Add()
//	editor.Names() // days[0].title, days[0].description, days[0].dayNumber, ...
//
// The document tree is the only source of ordering; the editor keeps no
// separate item list.
package collection
