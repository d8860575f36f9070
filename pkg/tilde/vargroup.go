package tilde

import "github.com/conneroisu/tilde/internal/lexer"

// VarGroup names an output escaping context. A variable can carry a group in
// the template (~%html:title%), and a group can be passed when the value is
// set, which takes precedence over the template's.
//
// Groups other than the predefined ones are legal; they only take effect
// when a stringifier is registered for them.
type VarGroup string

const (
	// NoGroup means no escaping context was specified.
	NoGroup VarGroup = ""
	// VarGroupText emits values unescaped.
	VarGroupText VarGroup = "text"
	// VarGroupHTML escapes for HTML element content.
	VarGroupHTML VarGroup = "html"
	// VarGroupJS escapes for JavaScript string literals.
	VarGroupJS VarGroup = "js"
	// VarGroupAttr escapes for HTML attribute values.
	VarGroupAttr VarGroup = "attr"
	// VarGroupJSAttr escapes for JavaScript inside HTML attributes,
	// e.g. onclick handlers.
	VarGroupJSAttr VarGroup = "jsattr"
	// VarGroupParam escapes URL query parameters.
	VarGroupParam VarGroup = "param"
	// VarGroupPath escapes URL path segments.
	VarGroupPath VarGroup = "path"
	// VarGroupDef emits the variable's placeholder when the value is nil.
	VarGroupDef VarGroup = "def"
)

// PredefinedGroups lists the groups that have built-in semantics.
var PredefinedGroups = []VarGroup{
	VarGroupText, VarGroupHTML, VarGroupJS, VarGroupAttr,
	VarGroupJSAttr, VarGroupParam, VarGroupPath, VarGroupDef,
}

// String returns the group name.
func (g VarGroup) String() string {
	return string(g)
}

// Valid reports whether g is a syntactically legal group name.
func (g VarGroup) Valid() bool {
	return lexer.IsGroupName(string(g))
}

// IsPredefined reports whether g has built-in semantics.
func (g VarGroup) IsPredefined() bool {
	for _, p := range PredefinedGroups {
		if p == g {
			return true
		}
	}
	return false
}
