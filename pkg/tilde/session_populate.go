package tilde

import (
	"errors"
	"reflect"
	"strings"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

// Insert populates the session's own template from data. Each variable is
// read from data through the accessor registry, and so is each nested
// template, which is then populated like Populate does. Values that are
// Undefined leave their variable or template untouched.
//
// names restricts which variables and nested templates are processed; an
// entry ending in '*' matches every name with that prefix. The same filter
// applies inside nested templates.
func (s *RenderSession) Insert(data any, g VarGroup, names ...string) error {
	if s.skip(data) {
		return nil
	}
	if isNil(data) {
		if !s.tmpl.IsTextOnly() {
			return s.notTextOnly(s.tmpl.name)
		}
		return nil
	}
	filter := newNameFilter(names)
	reg := s.cfg.accessors
	for _, v := range s.tmpl.vars {
		if !filter.match(v) {
			continue
		}
		val, err := reg.Access(data, s.tmpl, v)
		if err != nil {
			return s.accessError(v, err)
		}
		if IsUndefined(val) {
			continue
		}
		s.values[v] = &binding{value: val, group: g}
	}
	for _, t := range s.tmpl.nested {
		if !filter.match(t.name) {
			continue
		}
		val, err := reg.Access(data, s.tmpl, t.name)
		if err != nil {
			return s.accessError(t.name, err)
		}
		if s.skip(val) {
			continue
		}
		if err := s.populate(t, val, g, names); err != nil {
			return err
		}
	}
	return nil
}

// Populate instantiates the nested template name from data: once per
// element for slices and arrays, not at all for nil, and once for any
// other value. Text-only templates are just enabled that many times.
func (s *RenderSession) Populate(name string, data any, g VarGroup, names ...string) error {
	t, err := s.nestedTemplate(name)
	if err != nil {
		return err
	}
	if s.skip(data) {
		return nil
	}
	return s.populate(t, data, g, names)
}

// Populate1 repeats a nested template with exactly one variable once per
// value, binding the value to that variable.
func (s *RenderSession) Populate1(name string, g VarGroup, values ...any) error {
	t, err := s.nestedTemplate(name)
	if err != nil {
		return err
	}
	if len(t.vars) != 1 {
		return tildeerr.NewRenderError(NotOneVarTemplate, s.fqn(name),
			"Template %q must have exactly one variable, found %d", s.fqn(name), len(t.vars))
	}
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = map[string]any{t.vars[0]: v}
	}
	return s.populate(t, items, g, nil)
}

// Populate2 repeats a nested template with exactly two variables once per
// pair of values, binding them in the order the variables first appear.
func (s *RenderSession) Populate2(name string, g VarGroup, values ...any) error {
	t, err := s.nestedTemplate(name)
	if err != nil {
		return err
	}
	if len(t.vars) != 2 {
		return tildeerr.NewRenderError(NotTwoVarTemplate, s.fqn(name),
			"Template %q must have exactly two variables, found %d", s.fqn(name), len(t.vars))
	}
	if len(values)%2 != 0 {
		return tildeerr.NewRenderError(NotTwoVarTemplate, s.fqn(name),
			"Template %q takes values in pairs, got %d values", s.fqn(name), len(values))
	}
	items := make([]any, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		items = append(items, map[string]any{t.vars[0]: values[i], t.vars[1]: values[i+1]})
	}
	return s.populate(t, items, g, nil)
}

func (s *RenderSession) populate(t *Template, data any, g VarGroup, names []string) error {
	items := listify(data)
	kids, err := s.createChildren(t.name, len(items))
	if err != nil || t.IsTextOnly() {
		return err
	}
	for i, k := range kids {
		if err := k.Insert(items[i], g, names...); err != nil {
			return err
		}
	}
	return nil
}

func (s *RenderSession) skip(data any) bool {
	if IsUndefined(data) {
		return true
	}
	return s.cfg.accessors.NullIsUndefined() && isNil(data)
}

func (s *RenderSession) accessError(name string, err error) error {
	var re *RenderError
	if errors.As(err, &re) {
		re.Name = s.fqn(name)
	}
	return err
}

// listify turns data into the items of a repeated template. []byte counts
// as a single value.
func listify(data any) []any {
	if data == nil {
		return nil
	}
	if items, ok := data.([]any); ok {
		return items
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		fallthrough
	case reflect.Array:
		items := make([]any, v.Len())
		for i := range items {
			items[i] = v.Index(i).Interface()
		}
		return items
	}
	return []any{data}
}

type nameFilter struct {
	exact    map[string]bool
	prefixes []string
}

func newNameFilter(names []string) *nameFilter {
	if len(names) == 0 {
		return nil
	}
	f := &nameFilter{exact: make(map[string]bool, len(names))}
	for _, n := range names {
		if p, ok := strings.CutSuffix(n, "*"); ok {
			f.prefixes = append(f.prefixes, p)
			continue
		}
		f.exact[n] = true
	}
	return f
}

// match reports whether name passes the filter. A nil filter passes all.
func (f *nameFilter) match(name string) bool {
	if f == nil || f.exact[name] {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
