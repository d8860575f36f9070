package tilde

// Accessor extracts the value of a named property from a data object.
// Implementations return Undefined when the data has no such property, so
// that an absent property can be told apart from one holding nil.
type Accessor interface {
	Access(data any, name string) (any, error)
}

// AccessorFunc adapts a function to the Accessor interface.
type AccessorFunc func(data any, name string) (any, error)

// Access implements Accessor.
func (f AccessorFunc) Access(data any, name string) (any, error) {
	return f(data, name)
}

type undefinedValue struct{}

func (undefinedValue) String() string { return "<undefined>" }

// Undefined is returned by accessors for properties the data object does
// not have. Population skips variables whose value is Undefined.
var Undefined any = undefinedValue{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// NameMapper maps the name of a field or key in a data object to the name
// of a template variable. Implementations must be pure.
type NameMapper interface {
	Map(name string) string
}

// NameMapperFunc adapts a function to the NameMapper interface.
type NameMapperFunc func(name string) string

// Map implements NameMapper.
func (f NameMapperFunc) Map(name string) string {
	return f(name)
}
