package itemtemplate

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	itemPolicyOnce sync.Once
	itemPolicy     *bluemonday.Policy
)

// Sanitize strips scripts, event handlers and anything outside the form
// vocabulary from item markup. Marker attributes (data-*) survive.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(itemSanitizer().Sanitize(trimmed))
}

func itemSanitizer() *bluemonday.Policy {
	itemPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"div", "span", "p", "small", "strong", "em",
			"h3", "h4", "h5", "h6",
			"fieldset", "legend", "label",
			"input", "textarea", "select", "option", "button",
		)
		policy.AllowDataAttributes()
		policy.AllowAttrs("class", "id", "title", "aria-label", "role").Globally()
		policy.AllowAttrs("for").OnElements("label")
		policy.AllowAttrs(
			"type", "value", "placeholder", "required", "min", "max", "step",
			"pattern", "autocomplete", "readonly", "disabled",
		).OnElements("input")
		policy.AllowAttrs("rows", "cols", "placeholder", "required", "readonly").OnElements("textarea")
		policy.AllowAttrs("required", "multiple").OnElements("select")
		policy.AllowAttrs("value", "selected").OnElements("option")
		policy.AllowAttrs("type", "formnovalidate").OnElements("button")

		itemPolicy = policy
	})
	return itemPolicy
}
