package tilde

import (
	"fmt"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"
)

// StructTag is the struct tag key that overrides the variable name a field
// binds to. A value of "-" hides the field.
const StructTag = "tilde"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// mapAccessor reads string-keyed maps of any value type.
type mapAccessor struct {
	nm NameMapper
}

func (a mapAccessor) Access(data any, name string) (any, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Undefined, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return Undefined, nil
	}
	if v.IsNil() {
		return Undefined, nil
	}
	if a.nm == nil {
		val := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !val.IsValid() {
			return Undefined, nil
		}
		return val.Interface(), nil
	}
	iter := v.MapRange()
	for iter.Next() {
		if a.nm.Map(iter.Key().String()) == name {
			return iter.Value().Interface(), nil
		}
	}
	return Undefined, nil
}

// structMember locates a field by index path, or a method by name.
type structMember struct {
	index  []int
	method string
}

// structAccessor reads exported fields and zero-argument methods of
// structs and pointers to structs. Field lookups are cached per type.
type structAccessor struct {
	nm    NameMapper
	types sync.Map // reflect.Type -> map[string]structMember
}

func newStructAccessor(nm NameMapper) *structAccessor {
	return &structAccessor{nm: nm}
}

func (a *structAccessor) Access(data any, name string) (any, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	recv := v
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return Undefined, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return Undefined, nil
	}
	members := a.members(recv.Type())
	m, ok := members[name]
	if !ok {
		return Undefined, nil
	}
	if m.method != "" {
		return callGetter(recv, m.method)
	}
	f, err := v.FieldByIndexErr(m.index)
	if err != nil {
		// nil embedded pointer
		return Undefined, nil
	}
	return f.Interface(), nil
}

func callGetter(recv reflect.Value, method string) (out any, err error) {
	fn := recv.MethodByName(method)
	if !fn.IsValid() {
		return Undefined, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("calling %s: %v", method, r)
		}
	}()
	res := fn.Call(nil)
	if len(res) == 2 && !res[1].IsNil() {
		return nil, fmt.Errorf("calling %s: %w", method, res[1].Interface().(error))
	}
	return res[0].Interface(), nil
}

func (a *structAccessor) members(t reflect.Type) map[string]structMember {
	if cached, ok := a.types.Load(t); ok {
		return cached.(map[string]structMember)
	}
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	members := make(map[string]structMember)
	for _, f := range reflect.VisibleFields(st) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		for _, key := range a.keys(f.Name, f.Tag.Get(StructTag)) {
			if _, taken := members[key]; !taken {
				members[key] = structMember{index: f.Index}
			}
		}
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !isGetter(m.Type) {
			continue
		}
		for _, key := range a.keys(m.Name, "") {
			if _, taken := members[key]; !taken {
				members[key] = structMember{method: m.Name}
			}
		}
	}
	a.types.Store(t, members)
	return members
}

// keys returns the variable names a field or method binds to.
func (a *structAccessor) keys(name, tag string) []string {
	switch {
	case tag == "-":
		return nil
	case tag != "":
		return []string{tag}
	case a.nm != nil:
		return []string{a.nm.Map(name)}
	}
	lower := lowerFirst(name)
	if lower == name {
		return []string{name}
	}
	return []string{name, lower}
}

// isGetter reports whether a method type (receiver included) takes no
// arguments and returns a value, optionally followed by an error.
func isGetter(mt reflect.Type) bool {
	if mt.NumIn() != 1 {
		return false
	}
	switch mt.NumOut() {
	case 1:
		return true
	case 2:
		return mt.Out(1) == errorType
	}
	return false
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// positionalAccessor reads []any by the order in which the template
// declares its variables.
type positionalAccessor struct {
	tmpl *Template
}

func (a positionalAccessor) Access(data any, name string) (any, error) {
	values, ok := data.([]any)
	if !ok || a.tmpl == nil {
		return Undefined, nil
	}
	for i, v := range a.tmpl.vars {
		if v == name {
			if i < len(values) {
				return values[i], nil
			}
			return Undefined, nil
		}
	}
	return Undefined, nil
}

var undefinedAccessor = AccessorFunc(func(any, string) (any, error) {
	return Undefined, nil
})
