// Package openapi derives collection schemas from OpenAPI 3 documents. An
// array property whose items are objects becomes a collection: the item
// properties become field kinds and the x-formcollection extension supplies
// container, class and ordinal hints.
//
// Documents load from files, fs.FS entries or (opt-in) HTTP URLs:
//
//	loader := openapi.NewLoader(openapi.WithFileSystem(os.DirFS("specs")))
//	doc, err := loader.Load(ctx, openapi.SourceFromFS("booking.yaml"))
//	schema, err := openapi.Derive(ctx, doc, "Booking", "participants")
package openapi
