package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
	"github.com/conneroisu/tilde/pkg/tilde"
)

// DataFlags select the data object a template is rendered with.
type DataFlags struct {
	File  string
	Group string
}

// AddDataFlags registers --data and --group on fs.
func AddDataFlags(fs *pflag.FlagSet, f *DataFlags) {
	fs.StringVarP(&f.File, "data", "d", "", "data file (YAML or JSON, - for stdin)")
	fs.StringVarP(&f.Group, "group", "g", "", "variable group applied to every value (e.g. html, js, url)")
}

// VarGroup returns the group selected with --group.
func (f *DataFlags) VarGroup() tilde.VarGroup {
	if f.Group == "" {
		return tilde.NoGroup
	}
	return tilde.VarGroup(f.Group)
}

// Load reads the data file, or returns nil when none was given.
func (f *DataFlags) Load(stdin io.Reader) (any, error) {
	if f.File == "" {
		return nil, nil
	}
	var (
		b   []byte
		err error
	)
	if f.File == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(f.File)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file %s: %w", f.File, err)
	}
	return decodeData(f.File, b)
}

// decodeData decodes JSON files with encoding/json and everything else as
// YAML, which also accepts JSON.
func decodeData(name string, b []byte) (any, error) {
	var data any
	if strings.EqualFold(filepath.Ext(name), ".json") {
		if err := json.Unmarshal(b, &data); err != nil {
			return nil, fmt.Errorf("invalid JSON in data file %s: %w", name, err)
		}
		return data, nil
	}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("invalid YAML in data file %s: %w", name, err)
	}
	return data, nil
}

// formatValue is a pflag.Value accepting one of a fixed set of output
// formats.
type formatValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*formatValue)(nil)

func newFormatValue(def string, allowed ...string) *formatValue {
	return &formatValue{value: def, allowed: allowed}
}

func (f *formatValue) String() string { return f.value }

func (f *formatValue) Type() string { return "format" }

func (f *formatValue) Set(s string) error {
	for _, a := range f.allowed {
		if s == a {
			f.value = s
			return nil
		}
	}
	msg := fmt.Sprintf("invalid format %q, must be one of: %s", s, strings.Join(f.allowed, ", "))
	if c := tildeerr.Closest(s, f.allowed); c != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", c)
	}
	return errors.New(msg)
}

// AddFormatFlag registers --format (-f) on cmd.
func AddFormatFlag(cmd *cobra.Command, def string, allowed ...string) *formatValue {
	v := newFormatValue(def, allowed...)
	cmd.Flags().VarP(v, "format", "f",
		fmt.Sprintf("output format (%s)", strings.Join(allowed, "|")))
	return v
}

// writeFormatted writes v as JSON or YAML, or calls table for "table" and
// "text".
func writeFormatted(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return table(w)
	}
}
