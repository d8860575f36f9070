// Package errors defines the structured error types shared by the template
// engine, the configuration layer and the command-line tools.
//
// Parse errors and render errors form two disjoint families. Both carry a
// code that can be compared with errors.Is against a sentinel holding only
// that code.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
)

// Error is a structured error for everything outside parsing and rendering:
// configuration, template stores and file access.
type Error struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	Path    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithPath records the file or stored template the error concerns.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{Type: ErrorTypeConfig, Code: code, Message: message}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeIO, Code: code, Message: message, Cause: cause}
}

// Codes of I/O errors.
const (
	CodeTemplateRead = "TEMPLATE_READ"
	CodeStoreOpen    = "STORE_OPEN"
	CodeStoreQuery   = "STORE_QUERY"
	CodeStoreWrite   = "STORE_WRITE"
	CodeInvalidPath  = "INVALID_PATH"
)

// ParseError reports the first grammar violation found in a template source.
type ParseError struct {
	Code    ParseErrorCode
	Path    string
	Line    int
	Column  int
	Offset  int
	Message string
	Cause   error
}

// NewParseError creates a parse error positioned at offset within src.
func NewParseError(code ParseErrorCode, src string, offset int, format string, args ...interface{}) *ParseError {
	line, col := LineColumn(src, offset)
	return &ParseError{
		Code:    code,
		Line:    line,
		Column:  col,
		Offset:  offset,
		Message: fmt.Sprintf("Error at line %d, column %d. ", line, col) + fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a parse error with the same code.
func (e *ParseError) Is(target error) bool {
	var t *ParseError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithPath sets the path of the template the error occurred in, unless a
// more specific path was already recorded by an included template.
func (e *ParseError) WithPath(path string) *ParseError {
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// WithCause attaches an underlying error.
func (e *ParseError) WithCause(cause error) *ParseError {
	e.Cause = cause
	return e
}

// RenderError reports a violation of the render protocol against a valid
// template.
type RenderError struct {
	Code       RenderErrorCode
	Name       string
	Message    string
	Suggestion string
	Cause      error
}

// NewRenderError creates a render error concerning the variable or template
// identified by name.
func NewRenderError(code RenderErrorCode, name, format string, args ...interface{}) *RenderError {
	return &RenderError{
		Code:    code,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapRender creates a render error with an underlying cause.
func WrapRender(code RenderErrorCode, name string, cause error, format string, args ...interface{}) *RenderError {
	e := NewRenderError(code, name, format, args...)
	e.Cause = cause
	return e
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	msg := e.Message
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a render error with the same code.
func (e *RenderError) Is(target error) bool {
	var t *RenderError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithSuggestion records the closest known name to the one that failed.
func (e *RenderError) WithSuggestion(s string) *RenderError {
	e.Suggestion = s
	return e
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsRenderError reports whether err is or wraps a RenderError.
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// RenderCode returns the render error code carried by err, if any.
func RenderCode(err error) (RenderErrorCode, bool) {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return RenderErrorUnknown, false
}

// ParseCode returns the parse error code carried by err, if any.
func ParseCode(err error) (ParseErrorCode, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return ParseErrorUnknown, false
}
