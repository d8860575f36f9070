package tilde

import (
	"net/url"
	"strings"
	"sync"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var attrReplacer = strings.NewReplacer("`", "&#96;", "=", "&#61;")

// EscapeHTML escapes < > & ' and " for HTML element content.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// EscapeAttr escapes for quoted and unquoted HTML attribute values.
func EscapeAttr(s string) string {
	return attrReplacer.Replace(html.EscapeString(s))
}

// EscapeJS escapes for JavaScript string literals.
func EscapeJS(s string) string {
	return template.JSEscapeString(s)
}

// EscapeJSAttr escapes for JavaScript inside HTML attributes such as
// onclick.
func EscapeJSAttr(s string) string {
	return EscapeAttr(EscapeJS(s))
}

// EscapePath escapes a URL path segment.
func EscapePath(s string) string {
	return url.PathEscape(s)
}

// EscapeParam escapes a URL query parameter.
func EscapeParam(s string) string {
	return url.QueryEscape(s)
}

var (
	ugcPolicy     *bluemonday.Policy
	ugcPolicyOnce sync.Once
)

// SanitizeHTML keeps the markup of user-generated content that is safe to
// display and strips the rest, e.g. scripts and event handlers.
var SanitizeHTML Stringifier = StringifierFunc(func(v any) (string, error) {
	s, err := DefaultStringifier.Stringify(v)
	if err != nil || s == "" {
		return s, err
	}
	ugcPolicyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy.Sanitize(s), nil
})

// groupEscapers holds the stringifiers of the predefined groups. def has
// none; it only changes how nil is rendered.
var groupEscapers = map[VarGroup]Stringifier{
	VarGroupText:   DefaultStringifier,
	VarGroupHTML:   EscapeStringifier(EscapeHTML),
	VarGroupAttr:   EscapeStringifier(EscapeAttr),
	VarGroupJS:     EscapeStringifier(EscapeJS),
	VarGroupJSAttr: EscapeStringifier(EscapeJSAttr),
	VarGroupPath:   EscapeStringifier(EscapePath),
	VarGroupParam:  EscapeStringifier(EscapeParam),
}
