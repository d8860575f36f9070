package tilde

import (
	"path"
	"reflect"
	"sync"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

type variableKey struct {
	tmpl *Template
	name string
}

type typeEntry struct {
	typ reflect.Type
	s   Stringifier
}

type patternEntry struct {
	pattern string
	s       Stringifier
}

// StringifierRegistry picks the stringifier for each variable occurrence.
// It is immutable once built and safe for concurrent use.
//
// Lookup order: the variable in its template, the variable name anywhere,
// the effective var-group, the value's type, the template default and
// finally the global default.
type StringifierRegistry struct {
	byVariable  map[variableKey]Stringifier
	byName      map[string]Stringifier
	byPattern   []patternEntry
	byGroup     map[VarGroup]Stringifier
	byType      map[reflect.Type]Stringifier
	byInterface []typeEntry
	tmplDefault map[*Template]Stringifier
	fallback    Stringifier
}

// StringifierRegistryBuilder configures a StringifierRegistry. A new
// builder already carries the escapers of the predefined var-groups.
type StringifierRegistryBuilder struct {
	reg StringifierRegistry
}

// NewStringifierRegistryBuilder returns a builder holding the standard
// group escapers and DefaultStringifier.
func NewStringifierRegistryBuilder() *StringifierRegistryBuilder {
	b := &StringifierRegistryBuilder{reg: StringifierRegistry{
		byVariable:  make(map[variableKey]Stringifier),
		byName:      make(map[string]Stringifier),
		byGroup:     make(map[VarGroup]Stringifier, len(groupEscapers)),
		byType:      make(map[reflect.Type]Stringifier),
		tmplDefault: make(map[*Template]Stringifier),
		fallback:    DefaultStringifier,
	}}
	for g, s := range groupEscapers {
		b.reg.byGroup[g] = s
	}
	return b
}

// RegisterForVariable uses s for the variables of tmpl identified by their
// fully-qualified names relative to tmpl.
func (b *StringifierRegistryBuilder) RegisterForVariable(s Stringifier, tmpl *Template, fqns ...string) error {
	for _, fqn := range fqns {
		owner, name, ok := ContainingTemplate(tmpl, fqn)
		if !ok {
			return tildeerr.NewRenderError(NoSuchVariable, fqn, "No such variable: %q", fqn)
		}
		b.reg.byVariable[variableKey{tmpl: owner, name: name}] = s
	}
	return nil
}

// RegisterByName uses s for variables with the given names in any
// template. Names may contain path.Match wildcards; exact names win over
// patterns, and patterns are tried in registration order.
func (b *StringifierRegistryBuilder) RegisterByName(s Stringifier, names ...string) *StringifierRegistryBuilder {
	for _, n := range names {
		if isPattern(n) {
			b.reg.byPattern = append(b.reg.byPattern, patternEntry{pattern: n, s: s})
			continue
		}
		b.reg.byName[n] = s
	}
	return b
}

// RegisterByGroup uses s for variables in the given var-groups, replacing
// any standard escaper.
func (b *StringifierRegistryBuilder) RegisterByGroup(s Stringifier, groups ...VarGroup) *StringifierRegistryBuilder {
	for _, g := range groups {
		b.reg.byGroup[g] = s
	}
	return b
}

// RegisterByType uses s for values of the given types. Interface types
// match any value implementing them, in registration order, after exact
// type matches.
func (b *StringifierRegistryBuilder) RegisterByType(s Stringifier, types ...reflect.Type) *StringifierRegistryBuilder {
	for _, t := range types {
		if t.Kind() == reflect.Interface {
			b.reg.byInterface = append(b.reg.byInterface, typeEntry{typ: t, s: s})
			continue
		}
		b.reg.byType[t] = s
	}
	return b
}

// SetTemplateDefault uses s for variables of tmpl no other rule covers.
func (b *StringifierRegistryBuilder) SetTemplateDefault(tmpl *Template, s Stringifier) *StringifierRegistryBuilder {
	b.reg.tmplDefault[tmpl] = s
	return b
}

// SetDefault replaces the global default stringifier.
func (b *StringifierRegistryBuilder) SetDefault(s Stringifier) *StringifierRegistryBuilder {
	if s != nil {
		b.reg.fallback = s
	}
	return b
}

// Build returns the registry.
func (b *StringifierRegistryBuilder) Build() *StringifierRegistry {
	r := &StringifierRegistry{
		byVariable:  make(map[variableKey]Stringifier, len(b.reg.byVariable)),
		byName:      make(map[string]Stringifier, len(b.reg.byName)),
		byPattern:   append([]patternEntry(nil), b.reg.byPattern...),
		byGroup:     make(map[VarGroup]Stringifier, len(b.reg.byGroup)),
		byType:      make(map[reflect.Type]Stringifier, len(b.reg.byType)),
		byInterface: append([]typeEntry(nil), b.reg.byInterface...),
		tmplDefault: make(map[*Template]Stringifier, len(b.reg.tmplDefault)),
		fallback:    b.reg.fallback,
	}
	for k, v := range b.reg.byVariable {
		r.byVariable[k] = v
	}
	for k, v := range b.reg.byName {
		r.byName[k] = v
	}
	for k, v := range b.reg.byGroup {
		r.byGroup[k] = v
	}
	for k, v := range b.reg.byType {
		r.byType[k] = v
	}
	for k, v := range b.reg.tmplDefault {
		r.tmplDefault[k] = v
	}
	return r
}

var (
	standardStringifiers     *StringifierRegistry
	standardStringifiersOnce sync.Once
)

// StandardStringifiers returns the registry holding only the predefined
// group escapers and DefaultStringifier.
func StandardStringifiers() *StringifierRegistry {
	standardStringifiersOnce.Do(func() {
		standardStringifiers = NewStringifierRegistryBuilder().Build()
	})
	return standardStringifiers
}

// Lookup returns the stringifier for variable name of tmpl holding v,
// rendered under the effective var-group g.
func (r *StringifierRegistry) Lookup(tmpl *Template, name string, g VarGroup, v any) Stringifier {
	if s, ok := r.byVariable[variableKey{tmpl: tmpl, name: name}]; ok {
		return s
	}
	if s, ok := r.byName[name]; ok {
		return s
	}
	for _, e := range r.byPattern {
		if ok, _ := path.Match(e.pattern, name); ok {
			return e.s
		}
	}
	if g != NoGroup {
		if s, ok := r.byGroup[g]; ok {
			return s
		}
	}
	if v != nil {
		t := reflect.TypeOf(v)
		if s, ok := r.byType[t]; ok {
			return s
		}
		for _, e := range r.byInterface {
			if t.Implements(e.typ) {
				return e.s
			}
		}
	}
	if s, ok := r.tmplDefault[tmpl]; ok {
		return s
	}
	return r.fallback
}

func isPattern(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
