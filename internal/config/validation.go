package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
	"github.com/conneroisu/tilde/internal/logging"
	"github.com/conneroisu/tilde/pkg/tilde"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       any
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder
	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			fmt.Fprintf(&builder, "  - %s: %s\n", issue.Field, issue.Message)
			for _, s := range issue.Suggestions {
				fmt.Fprintf(&builder, "    hint: %s\n", s)
			}
		}
	}
	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)
	return builder.String()
}

func (vr *ValidationResult) fail(field string, value any, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

func (vr *ValidationResult) warn(field string, value any, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

// ValidateConfigWithDetails checks every section and collects all errors
// and warnings.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{}

	validateCache(&config.Cache, result)
	validateTemplates(&config.Templates, result)
	validateRender(&config.Render, result)
	validateWatch(&config.Watch, result)
	validateLog(&config.Log, result)

	result.Valid = !result.HasErrors()
	return result
}

// validateConfig returns the first validation error as a config error.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if !result.HasErrors() {
		return nil
	}
	first := result.Errors[0]
	return tildeerr.NewConfigError("INVALID_CONFIG", first.Field+": "+first.Message).
		WithContext("field", first.Field).
		WithContext("errors", len(result.Errors))
}

func validateCache(config *CacheConfig, result *ValidationResult) {
	if config.Size < tilde.CacheUnlimited {
		result.fail("cache.size", config.Size,
			fmt.Sprintf("cache size %d is below -1", config.Size),
			"Use -1 for an unbounded cache", "Use 0 to disable caching")
	}
}

func validateTemplates(config *TemplatesConfig, result *ValidationResult) {
	if err := validatePath(config.Dir); err != nil {
		result.fail("templates.dir", config.Dir, message(err))
	}
	if config.Store != "" {
		if err := validatePath(config.Store); err != nil {
			result.fail("templates.store", config.Store, message(err))
		}
	}
}

// message returns the message of a structured error without its code.
func message(err error) string {
	var e *tildeerr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func validateRender(config *RenderConfig, result *ValidationResult) {
	if _, ok := nameMappers[config.NameMapper]; !ok {
		var hints []string
		if s := tildeerr.Closest(config.NameMapper, NameMapperNames()); s != "" {
			hints = append(hints, fmt.Sprintf("Did you mean %q?", s))
		}
		hints = append(hints, "Known mappers: "+strings.Join(NameMapperNames(), ", "))
		result.fail("render.name_mapper", config.NameMapper,
			fmt.Sprintf("unknown name mapper %q", config.NameMapper), hints...)
	}
	for _, g := range config.SanitizeGroups {
		group := tilde.VarGroup(g)
		switch {
		case !group.Valid():
			result.fail("render.sanitize_groups", g, fmt.Sprintf("invalid group name %q", g))
		case group.IsPredefined():
			result.warn("render.sanitize_groups", g,
				fmt.Sprintf("sanitizing replaces the built-in %q escaping", g))
		}
	}
}

func validateWatch(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.fail("watch.debounce", config.Debounce, "debounce must not be negative")
	} else if config.Debounce > 10*time.Second {
		result.warn("watch.debounce", config.Debounce, "changes will be picked up slowly",
			"Values between 50ms and 500ms work well")
	}
	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			result.fail("watch.extensions", ext,
				fmt.Sprintf("extension %q must start with a dot", ext),
				fmt.Sprintf("Use %q", "."+strings.TrimLeft(ext, ".")))
		}
	}
	if len(config.Extensions) == 0 {
		result.warn("watch.extensions", nil, "no extensions configured; every file is watched")
	}
}

func validateLog(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.fail("log.level", config.Level, err.Error(), "Use debug, info, warn or error")
	}
	switch config.Format {
	case "text", "json":
	default:
		result.fail("log.format", config.Format,
			fmt.Sprintf("unknown log format %q", config.Format), "Use text or json")
	}
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return invalidPath(path, "empty path")
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return invalidPath(path, "path contains traversal: "+path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return invalidPath(path, "path contains dangerous character: "+char)
		}
	}
	return nil
}

func invalidPath(path, msg string) *tildeerr.Error {
	return tildeerr.NewValidationError(tildeerr.CodeInvalidPath, msg).WithContext("path", path)
}
