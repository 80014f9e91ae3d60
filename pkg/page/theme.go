package page

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// StylesheetAsset is the manifest asset key resolved into the page's
// stylesheet link.
const StylesheetAsset = "page.stylesheet"

// DefaultManifest is the built-in travel theme.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "travel",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-primary": "#0d6efd",
			"color-danger":  "#dc3545",
			"color-surface": "#ffffff",
			"radius":        "0.375rem",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color-primary": "#6ea8fe",
					"color-surface": "#212529",
				},
			},
		},
	}
}

// StaticSelector resolves themes from a fixed set of manifests.
type StaticSelector struct {
	fallback  string
	manifests map[string]*theme.Manifest
}

var _ theme.ThemeSelector = (*StaticSelector)(nil)

// NewStaticSelector registers manifests by name; fallback is used when Select
// receives an empty name.
func NewStaticSelector(fallback string, manifests ...*theme.Manifest) *StaticSelector {
	s := &StaticSelector{fallback: fallback, manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, manifest := range manifests {
		if manifest != nil && manifest.Name != "" {
			s.manifests[manifest.Name] = manifest
		}
	}
	return s
}

// Select returns the named manifest. An unknown variant is an error; an empty
// variant selects the base tokens.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if strings.TrimSpace(name) == "" {
		name = s.fallback
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("page: theme %q is not registered", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("page: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ThemeConfig flattens a selection into renderer configuration: variant
// tokens and templates override the base manifest and every token becomes a
// --token CSS variable.
func ThemeConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant := manifest.Variants[selection.Variant]

	tokens := maps.Clone(manifest.Tokens)
	if tokens == nil {
		tokens = make(map[string]string)
	}
	maps.Copy(tokens, variant.Tokens)

	partials := maps.Clone(manifest.Templates)
	if partials == nil {
		partials = make(map[string]string)
	}
	maps.Copy(partials, variant.Templates)

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   tokens,
		CSSVars:  cssVars,
		Partials: partials,
		AssetURL: assetResolver(manifest.Assets, variant.Assets),
	}
}

func assetResolver(base, variant theme.Assets) func(string) string {
	return func(key string) string {
		file, ok := variant.Files[key]
		if !ok {
			file, ok = base.Files[key]
		}
		if !ok || file == "" {
			return ""
		}
		prefix := variant.Prefix
		if prefix == "" {
			prefix = base.Prefix
		}
		if prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
}

func themeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	ctx := map[string]any{
		"name":           cfg.Theme,
		"variant":        cfg.Variant,
		"css_vars_style": cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx["stylesheet"] = cfg.AssetURL(StylesheetAsset)
	}
	return ctx
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(vars))

	var b strings.Builder
	b.WriteString(":root {")
	for _, key := range keys {
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";")
	}
	b.WriteString(" }")
	return b.String()
}
