package tilde

import (
	"strings"
)

// RootName is the name of every top-level template.
const RootName = "{root}"

// Origin identifies where a template's source came from. Templates parsed
// from literal text have the zero Origin.
type Origin struct {
	Resolver string
	Path     string
}

// Key returns the cache key for the origin.
func (o Origin) Key() string {
	return o.Resolver + "|" + o.Path
}

// IsZero reports whether the origin is empty.
func (o Origin) IsZero() bool {
	return o.Path == ""
}

// Template is the compiled, immutable form of a template source. Templates
// are safe for concurrent use; rendering state lives in RenderSession.
type Template struct {
	name   string
	parent *Template
	parts  []Part
	origin Origin

	// vars lists distinct variable names in order of first appearance.
	vars     []string
	varParts map[string][]int
	// required holds variables with at least one occurrence lacking a
	// placeholder.
	required map[string]bool

	nested      []*Template
	nestedParts map[string]int

	// deps are the origins of all templates included anywhere below.
	deps []Origin

	subtreeVars int
}

func newTemplate(name string, parent *Template) *Template {
	return &Template{
		name:        name,
		parent:      parent,
		varParts:    make(map[string][]int),
		required:    make(map[string]bool),
		nestedParts: make(map[string]int),
	}
}

// Name returns the template name; RootName for top-level templates.
func (t *Template) Name() string { return t.name }

// Parent returns the enclosing template, or nil for a root template.
func (t *Template) Parent() *Template { return t.parent }

// IsRoot reports whether t is a top-level template.
func (t *Template) IsRoot() bool { return t.parent == nil }

// Origin returns where the root of this template's tree was loaded from.
func (t *Template) Origin() Origin { return t.origin }

// Path returns the source path the template was loaded from, or "".
func (t *Template) Path() string { return t.origin.Path }

// Parts returns the parts in document order. The slice must not be
// modified.
func (t *Template) Parts() []Part { return t.parts }

// Variables returns the distinct names of the variables directly in this
// template, in order of first appearance.
func (t *Template) Variables() []string {
	out := make([]string, len(t.vars))
	copy(out, t.vars)
	return out
}

// HasVariable reports whether name is a variable of this template.
func (t *Template) HasVariable(name string) bool {
	_, ok := t.varParts[name]
	return ok
}

// NestedTemplates returns the child templates in document order.
func (t *Template) NestedTemplates() []*Template {
	out := make([]*Template, len(t.nested))
	copy(out, t.nested)
	return out
}

// NestedTemplateNames returns the names of the child templates.
func (t *Template) NestedTemplateNames() []string {
	out := make([]string, len(t.nested))
	for i, n := range t.nested {
		out[i] = n.name
	}
	return out
}

// NestedTemplate returns the child template with the given name.
func (t *Template) NestedTemplate(name string) (*Template, bool) {
	i, ok := t.nestedParts[name]
	if !ok {
		return nil, false
	}
	return t.parts[i].(*NestedTemplatePart).tmpl, true
}

// HasNestedTemplate reports whether name is a child template of t.
func (t *Template) HasNestedTemplate(name string) bool {
	_, ok := t.nestedParts[name]
	return ok
}

// Names returns variable names followed by nested template names.
func (t *Template) Names() []string {
	return append(t.Variables(), t.NestedTemplateNames()...)
}

// IsTextOnly reports whether the template has neither variables nor nested
// templates.
func (t *Template) IsTextOnly() bool {
	return len(t.vars) == 0 && len(t.nested) == 0
}

// Dependencies returns the origins of every template included in this
// template's tree.
func (t *Template) Dependencies() []Origin {
	out := make([]Origin, len(t.deps))
	copy(out, t.deps)
	return out
}

// String reconstructs template source equivalent to the original, minus
// ditch blocks, placeholder blocks and line cleanup.
func (t *Template) String() string {
	var sb strings.Builder
	t.writeSource(&sb)
	return sb.String()
}

func (t *Template) writeSource(sb *strings.Builder) {
	for _, p := range t.parts {
		switch p := p.(type) {
		case *TextPart:
			sb.WriteString(p.text)
		case *VariablePart:
			ref := p.name
			if p.group != NoGroup {
				ref = string(p.group) + ":" + p.name
			}
			if p.comment || p.hasPlaceholder {
				sb.WriteString("<!-- ~%" + ref + "% -->")
				if p.hasPlaceholder {
					sb.WriteString(p.placeholder + "<!--%-->")
				}
			} else {
				sb.WriteString("~%" + ref + "%")
			}
		case *NestedTemplatePart:
			if p.included {
				sb.WriteString("~%%include:" + p.tmpl.name + ":" + p.path + "%%")
				continue
			}
			sb.WriteString("~%%begin:" + p.tmpl.name + "%")
			p.tmpl.writeSource(sb)
			sb.WriteString("~%%end:" + p.tmpl.name + "%")
		}
	}
}

// NewRenderSession creates a session for rendering t.
func (t *Template) NewRenderSession(opts ...SessionOption) *RenderSession {
	cfg := &sessionConfig{
		accessors:    StandardAccessors(),
		stringifiers: StandardStringifiers(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return newSession(t, cfg)
}

func (t *Template) addText(text string, start int) {
	if text == "" {
		return
	}
	if n := len(t.parts); n > 0 {
		if last, ok := t.parts[n-1].(*TextPart); ok {
			last.text += text
			return
		}
	}
	t.parts = append(t.parts, &TextPart{text: text, start: start})
}

func (t *Template) addVariable(p *VariablePart) {
	if _, ok := t.varParts[p.name]; !ok {
		t.vars = append(t.vars, p.name)
	}
	t.varParts[p.name] = append(t.varParts[p.name], len(t.parts))
	if !p.hasPlaceholder {
		t.required[p.name] = true
	}
	t.parts = append(t.parts, p)
}

func (t *Template) addNested(p *NestedTemplatePart) {
	t.nestedParts[p.tmpl.name] = len(t.parts)
	t.nested = append(t.nested, p.tmpl)
	t.parts = append(t.parts, p)
}

// seal computes the derived counts once the tree below t is complete.
func (t *Template) seal() {
	t.subtreeVars = len(t.vars)
	for _, n := range t.nested {
		t.subtreeVars += n.subtreeVars
		t.deps = append(t.deps, n.deps...)
	}
}

// cloneAs copies the tree rooted at t under a new name and parent. Included
// templates are shared between including templates this way without
// sharing parent pointers.
func (t *Template) cloneAs(name string, parent *Template) *Template {
	c := newTemplate(name, parent)
	c.origin = t.origin
	c.vars = append([]string(nil), t.vars...)
	for k, v := range t.varParts {
		c.varParts[k] = v
	}
	for k, v := range t.required {
		c.required[k] = v
	}
	for k, v := range t.nestedParts {
		c.nestedParts[k] = v
	}
	c.deps = append([]Origin(nil), t.deps...)
	c.subtreeVars = t.subtreeVars
	c.parts = make([]Part, len(t.parts))
	for i, p := range t.parts {
		np, ok := p.(*NestedTemplatePart)
		if !ok {
			c.parts[i] = p
			continue
		}
		child := np.tmpl.cloneAs(np.tmpl.name, c)
		c.parts[i] = &NestedTemplatePart{tmpl: child, included: np.included, path: np.path, start: np.start}
		c.nested = append(c.nested, child)
	}
	return c
}
