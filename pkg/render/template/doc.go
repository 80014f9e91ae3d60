// Package template defines the template seam shared by item factories and page
// renderers so the pongo2-backed engine can be swapped in tests.
package template
