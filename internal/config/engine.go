package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/conneroisu/tilde/internal/logging"
	"github.com/conneroisu/tilde/pkg/name"
	"github.com/conneroisu/tilde/pkg/tilde"
)

var nameMappers = map[string]tilde.NameMapper{
	"none":                 nil,
	"camel_to_snake_lower": name.CamelCaseToSnakeLower,
	"camel_to_snake_upper": name.CamelCaseToSnakeUpper,
	"camel_to_word":        name.CamelCaseToWordCase,
	"snake_to_camel":       name.SnakeCaseToCamel,
	"snake_to_word":        name.SnakeCaseToWordCase,
	"word_to_camel":        name.WordCaseToCamel,
	"word_to_snake_lower":  name.WordCaseToSnakeLower,
	"word_to_snake_upper":  name.WordCaseToSnakeUpper,
}

// NameMapperNames lists the accepted values of render.name_mapper.
func NameMapperNames() []string {
	names := make([]string, 0, len(nameMappers))
	for n := range nameMappers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NameMapper returns the configured name mapper, or nil for "none".
func (c *Config) NameMapper() (tilde.NameMapper, error) {
	nm, ok := nameMappers[c.Render.NameMapper]
	if !ok {
		return nil, fmt.Errorf("unknown name mapper %q", c.Render.NameMapper)
	}
	return nm, nil
}

// AccessorRegistry builds the accessor registry described by the render
// section.
func (c *Config) AccessorRegistry() (*tilde.AccessorRegistry, error) {
	nm, err := c.NameMapper()
	if err != nil {
		return nil, err
	}
	return tilde.NewAccessorRegistryBuilder().
		SetDefaultNameMapper(nm).
		NullEqualsUndefined(c.Render.NullEqualsUndefined).
		Build(), nil
}

// StringifierRegistry builds the stringifier registry described by the
// render section. Sanitized groups pass values through SanitizeHTML.
func (c *Config) StringifierRegistry() *tilde.StringifierRegistry {
	if len(c.Render.SanitizeGroups) == 0 {
		return tilde.StandardStringifiers()
	}
	groups := make([]tilde.VarGroup, len(c.Render.SanitizeGroups))
	for i, g := range c.Render.SanitizeGroups {
		groups[i] = tilde.VarGroup(g)
	}
	return tilde.NewStringifierRegistryBuilder().
		RegisterByGroup(tilde.SanitizeHTML, groups...).
		Build()
}

// SessionOptions returns the render session options for this
// configuration.
func (c *Config) SessionOptions() ([]tilde.SessionOption, error) {
	acc, err := c.AccessorRegistry()
	if err != nil {
		return nil, err
	}
	return []tilde.SessionOption{
		tilde.WithAccessors(acc),
		tilde.WithStringifiers(c.StringifierRegistry()),
	}, nil
}

// LoggerConfig returns the logger configuration for the log section.
func (c *Config) LoggerConfig() (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return &logging.LoggerConfig{
		Level:  level,
		Format: c.Log.Format,
		Output: os.Stderr,
	}, nil
}
