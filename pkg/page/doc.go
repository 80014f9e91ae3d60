// Package page renders the booking and itinerary forms as parsed documents
// with a collection editor attached.
//
// The same page serves clients with and without scripting. Without scripting
// every add or remove button submits the form; the server rebuilds the items
// from the posted names with Hydrate, applies the decoded Action and renders
// the document again. With scripting the browser runtime performs the same
// operations in place using the <template> element the shell carries.
package page
