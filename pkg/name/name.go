// Package name provides name mappers that translate between the casing
// conventions of Go fields, database columns and template variables.
//
// Each mapper is a tilde.NameMapper and can be passed to
// AccessorRegistryBuilder.SetNameMapper:
//
//	reg := tilde.NewAccessorRegistryBuilder().
//		SetDefaultNameMapper(name.CamelCaseToSnakeLower).
//		Build()
//
// Mappers return the empty string for input that has no letters to map.
package name

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/tilde/pkg/tilde"
)

// Casers keep state between calls, so every mapping gets its own.
func upper() cases.Caser { return cases.Upper(language.Und) }
func lower() cases.Caser { return cases.Lower(language.Und) }

var (
	// CamelCaseToSnakeLower maps "firstName" to "first_name".
	CamelCaseToSnakeLower tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return lower().String(camelToSnake(s))
	})
	// CamelCaseToSnakeUpper maps "firstName" to "FIRST_NAME".
	CamelCaseToSnakeUpper tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return upper().String(strings.TrimPrefix(camelToSnake(s), "_"))
	})
	// CamelCaseToWordCase maps "firstName" to "FirstName".
	CamelCaseToWordCase tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return mapFirst(s, upper())
	})
	// SnakeCaseToCamel maps "first_name" and "FIRST_NAME" to "firstName".
	SnakeCaseToCamel tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return snakeToCamel(s, false)
	})
	// SnakeCaseToWordCase maps "first_name" to "FirstName".
	SnakeCaseToWordCase tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return snakeToCamel(s, true)
	})
	// WordCaseToCamel maps "FirstName" to "firstName".
	WordCaseToCamel tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return mapFirst(s, lower())
	})
	// WordCaseToSnakeLower maps "FirstName" to "first_name".
	WordCaseToSnakeLower tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return lower().String(strings.TrimPrefix(camelToSnake(mapFirst(s, lower())), "_"))
	})
	// WordCaseToSnakeUpper maps "FirstName" to "FIRST_NAME".
	WordCaseToSnakeUpper tilde.NameMapper = tilde.NameMapperFunc(func(s string) string {
		return upper().String(strings.TrimPrefix(camelToSnake(mapFirst(s, lower())), "_"))
	})
)

// Chain applies mappers left to right.
func Chain(mappers ...tilde.NameMapper) tilde.NameMapper {
	return tilde.NameMapperFunc(func(s string) string {
		for _, m := range mappers {
			s = m.Map(s)
		}
		return s
	})
}

// camelToSnake inserts an underscore before every word boundary. An
// upper-case run followed by a lower-case letter starts a new word at
// its last letter, so "HTTPServer" becomes "HTTP_Server".
func camelToSnake(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/2)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && runes[i-1] != '_') {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func snakeToCamel(s string, word bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	first := true
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	}) {
		head, size := utf8.DecodeRuneInString(part)
		rest := lower().String(part[size:])
		switch {
		case first && !word:
			sb.WriteString(lower().String(string(head)))
		default:
			sb.WriteString(upper().String(string(head)))
		}
		sb.WriteString(rest)
		first = false
	}
	return sb.String()
}

// mapFirst applies c to the first rune of s only.
func mapFirst(s string, c cases.Caser) string {
	if s == "" {
		return ""
	}
	head, size := utf8.DecodeRuneInString(s)
	return c.String(string(head)) + s[size:]
}
