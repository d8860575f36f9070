// Package config provides configuration management for tilde using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration covers the template cache, where templates are found,
// how data objects are read during rendering, the file watcher and
// logging. Values can be overridden with TILDE_-prefixed environment
// variables, e.g. TILDE_CACHE_SIZE or TILDE_RENDER_NAME_MAPPER.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete tilde configuration.
type Config struct {
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache" json:"cache"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates" json:"templates"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render" json:"render"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch" json:"watch"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
}

// CacheConfig sizes the template cache. 0 disables caching and -1 removes
// the bound.
type CacheConfig struct {
	Size int `mapstructure:"size" yaml:"size" json:"size"`
}

// TemplatesConfig says where templates are loaded from.
type TemplatesConfig struct {
	Dir   string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Store string `mapstructure:"store" yaml:"store,omitempty" json:"store,omitempty"`
}

// RenderConfig controls how data objects become variable values.
type RenderConfig struct {
	NameMapper          string   `mapstructure:"name_mapper" yaml:"name_mapper" json:"name_mapper"`
	NullEqualsUndefined bool     `mapstructure:"null_equals_undefined" yaml:"null_equals_undefined" json:"null_equals_undefined"`
	SanitizeGroups      []string `mapstructure:"sanitize_groups" yaml:"sanitize_groups,omitempty" json:"sanitize_groups,omitempty"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	Debounce   time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
	Extensions []string      `mapstructure:"extensions" yaml:"extensions" json:"extensions"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Defaults for keys absent from every source.
const (
	DefaultCacheSize  = 100
	DefaultDir        = "."
	DefaultNameMapper = "none"
	DefaultDebounce   = 100 * time.Millisecond
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// DefaultExtensions are the template file extensions watched by default.
var DefaultExtensions = []string{".html", ".htm", ".txt", ".tmpl", ".tilde"}

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "TILDE"

// ConfigFileEnv names the environment variable holding a config file path.
const ConfigFileEnv = "TILDE_CONFIG_FILE"

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// Init points v at its configuration sources and reads the config file.
//
// The file is, in order of precedence, cfgFile, the file named by
// TILDE_CONFIG_FILE, or .tilde.yml in the working directory. A missing
// default file is not an error; a missing explicit one is. Init returns the
// file that was read, or "".
func Init(v *viper.Viper, cfgFile string) (string, error) {
	explicit := true
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case os.Getenv(ConfigFileEnv) != "":
		v.SetConfigFile(os.Getenv(ConfigFileEnv))
	default:
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".tilde")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// SetDefaults registers the default value of every key with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("templates.dir", DefaultDir)
	v.SetDefault("templates.store", "")
	v.SetDefault("render.name_mapper", DefaultNameMapper)
	v.SetDefault("render.null_equals_undefined", false)
	v.SetDefault("watch.debounce", DefaultDebounce)
	v.SetDefault("watch.extensions", DefaultExtensions)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates
// the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	// Slices from env vars arrive as one comma or space separated string.
	if v.IsSet("watch.extensions") {
		config.Watch.Extensions = v.GetStringSlice("watch.extensions")
	}
	if v.IsSet("render.sanitize_groups") {
		config.Render.SanitizeGroups = v.GetStringSlice("render.sanitize_groups")
	}
	if len(config.Render.SanitizeGroups) == 0 {
		config.Render.SanitizeGroups = nil
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Default returns the configuration used when no source sets anything.
func Default() *Config {
	return &Config{
		Cache:     CacheConfig{Size: DefaultCacheSize},
		Templates: TemplatesConfig{Dir: DefaultDir},
		Render:    RenderConfig{NameMapper: DefaultNameMapper},
		Watch: WatchConfig{
			Debounce:   DefaultDebounce,
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}
