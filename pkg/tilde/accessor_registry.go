package tilde

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

type accessorKey struct {
	typ  reflect.Type
	tmpl *Template
}

// AccessorRegistry picks the accessor for a data object and template. It
// is immutable once built and safe for concurrent use.
type AccessorRegistry struct {
	accessors           map[accessorKey]Accessor
	nullEqualsUndefined bool

	// built-in accessors: one set per registered name mapper plus the
	// default set, all created by Build
	defaults *builtinAccessors
	builtins map[*Template]*builtinAccessors
}

type builtinAccessors struct {
	maps    mapAccessor
	structs *structAccessor
}

func newBuiltinAccessors(nm NameMapper) *builtinAccessors {
	return &builtinAccessors{maps: mapAccessor{nm: nm}, structs: newStructAccessor(nm)}
}

// AccessorRegistryBuilder configures an AccessorRegistry.
type AccessorRegistryBuilder struct {
	accessors           map[accessorKey]Accessor
	mappers             map[*Template]NameMapper
	defaultMapper       NameMapper
	nullEqualsUndefined bool
}

// NewAccessorRegistryBuilder returns a builder with no custom accessors.
func NewAccessorRegistryBuilder() *AccessorRegistryBuilder {
	return &AccessorRegistryBuilder{
		accessors: make(map[accessorKey]Accessor),
		mappers:   make(map[*Template]NameMapper),
	}
}

// Register uses acc for data of type typ. With templates, the accessor is
// used only when populating those templates.
func (b *AccessorRegistryBuilder) Register(acc Accessor, typ reflect.Type, templates ...*Template) *AccessorRegistryBuilder {
	if len(templates) == 0 {
		b.accessors[accessorKey{typ: typ}] = acc
		return b
	}
	for _, t := range templates {
		b.accessors[accessorKey{typ: typ, tmpl: t}] = acc
	}
	return b
}

// SetNameMapper sets the name mapper the built-in accessors use for the
// given templates.
func (b *AccessorRegistryBuilder) SetNameMapper(nm NameMapper, templates ...*Template) *AccessorRegistryBuilder {
	for _, t := range templates {
		b.mappers[t] = nm
	}
	return b
}

// SetDefaultNameMapper sets the name mapper used by the built-in accessors
// for templates without their own.
func (b *AccessorRegistryBuilder) SetDefaultNameMapper(nm NameMapper) *AccessorRegistryBuilder {
	b.defaultMapper = nm
	return b
}

// NullEqualsUndefined makes population treat nil values like absent ones,
// leaving the variable unset.
func (b *AccessorRegistryBuilder) NullEqualsUndefined(v bool) *AccessorRegistryBuilder {
	b.nullEqualsUndefined = v
	return b
}

// Build returns the registry. The builder can be reused afterwards.
func (b *AccessorRegistryBuilder) Build() *AccessorRegistry {
	r := &AccessorRegistry{
		accessors:           make(map[accessorKey]Accessor, len(b.accessors)),
		nullEqualsUndefined: b.nullEqualsUndefined,
		defaults:            newBuiltinAccessors(b.defaultMapper),
		builtins:            make(map[*Template]*builtinAccessors, len(b.mappers)),
	}
	for k, v := range b.accessors {
		r.accessors[k] = v
	}
	for k, v := range b.mappers {
		r.builtins[k] = newBuiltinAccessors(v)
	}
	return r
}

var (
	standardAccessors     *AccessorRegistry
	standardAccessorsOnce sync.Once
)

// StandardAccessors returns the registry with only the built-in accessors.
func StandardAccessors() *AccessorRegistry {
	standardAccessorsOnce.Do(func() {
		standardAccessors = NewAccessorRegistryBuilder().Build()
	})
	return standardAccessors
}

// NullIsUndefined reports whether nil values are treated as absent.
func (r *AccessorRegistry) NullIsUndefined() bool {
	return r.nullEqualsUndefined
}

// AccessorFor returns the accessor for data when populating t.
func (r *AccessorRegistry) AccessorFor(data any, t *Template) Accessor {
	typ := reflect.TypeOf(data)
	if typ != nil {
		if acc, ok := r.registered(typ, t); ok {
			return acc
		}
		if typ.Kind() == reflect.Pointer {
			if acc, ok := r.registered(typ.Elem(), t); ok {
				return AccessorFunc(func(data any, name string) (any, error) {
					v := reflect.ValueOf(data)
					if v.IsNil() {
						return Undefined, nil
					}
					return acc.Access(v.Elem().Interface(), name)
				})
			}
		}
	}
	return r.builtin(typ, t)
}

func (r *AccessorRegistry) registered(typ reflect.Type, t *Template) (Accessor, bool) {
	if acc, ok := r.accessors[accessorKey{typ: typ, tmpl: t}]; ok {
		return acc, true
	}
	acc, ok := r.accessors[accessorKey{typ: typ}]
	return acc, ok
}

func (r *AccessorRegistry) builtin(typ reflect.Type, t *Template) Accessor {
	if typ == nil {
		return undefinedAccessor
	}
	b := r.builtinsFor(t)
	k := typ.Kind()
	if k == reflect.Pointer {
		k = typ.Elem().Kind()
		typ = typ.Elem()
	}
	switch {
	case k == reflect.Map && typ.Key().Kind() == reflect.String:
		return b.maps
	case k == reflect.Struct:
		return b.structs
	case typ == reflect.TypeOf([]any(nil)):
		return positionalAccessor{tmpl: t}
	}
	return undefinedAccessor
}

// builtinsFor never stores anything per template: only templates given a
// name mapper at build time have their own set.
func (r *AccessorRegistry) builtinsFor(t *Template) *builtinAccessors {
	if b, ok := r.builtins[t]; ok {
		return b
	}
	return r.defaults
}

// Access reads name from data on behalf of t. Dotted names are followed
// one segment at a time, each with the accessor for the value reached so
// far. Accessor failures are returned as ACCESS_EXCEPTION render errors.
func (r *AccessorRegistry) Access(data any, t *Template, name string) (any, error) {
	v, err := r.access(data, t, name)
	if err != nil {
		return nil, &RenderError{
			Code:    AccessException,
			Name:    name,
			Message: fmt.Sprintf("Error while reading %q from %T", name, data),
			Cause:   err,
		}
	}
	if r.nullEqualsUndefined && isNil(v) {
		return Undefined, nil
	}
	return v, nil
}

func (r *AccessorRegistry) access(data any, t *Template, name string) (any, error) {
	if _, ok := data.([]any); ok {
		return r.AccessorFor(data, t).Access(data, name)
	}
	cur := data
	for _, seg := range strings.Split(name, ".") {
		if isNil(cur) {
			return Undefined, nil
		}
		v, err := r.AccessorFor(cur, t).Access(cur, seg)
		if err != nil || IsUndefined(v) {
			return v, err
		}
		cur = v
	}
	return cur, nil
}

// isNil reports whether v is nil or a typed nil pointer, map, slice,
// channel, function or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
