package tilde

import (
	"errors"
	"fmt"
)

// ErrNoResult is returned by a stringifier that has no text for a value.
// Rendering reports it as STRINGIFIER_RETURNED_NULL.
var ErrNoResult = errors.New("stringifier returned no result")

// Stringifier converts a value into output text. It is called with nil for
// variables set to nil; implementations that cannot handle nil may fail,
// which rendering reports as STRINGIFIER_NOT_NULL_RESISTENT.
type Stringifier interface {
	Stringify(v any) (string, error)
}

// StringifierFunc adapts a function to the Stringifier interface.
type StringifierFunc func(v any) (string, error)

// Stringify implements Stringifier.
func (f StringifierFunc) Stringify(v any) (string, error) {
	return f(v)
}

// DefaultStringifier renders nil as the empty string and everything else
// with fmt.Sprint.
var DefaultStringifier Stringifier = StringifierFunc(func(v any) (string, error) {
	if isNil(v) {
		return "", nil
	}
	return fmt.Sprint(v), nil
})

// EscapeStringifier returns a stringifier that formats the value like
// DefaultStringifier and then applies escape.
func EscapeStringifier(escape func(string) string) Stringifier {
	return StringifierFunc(func(v any) (string, error) {
		s, err := DefaultStringifier.Stringify(v)
		if err != nil || s == "" {
			return s, err
		}
		return escape(s), nil
	})
}
