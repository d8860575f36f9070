package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/pkg/tilde"
)

var varsCmd = &cobra.Command{
	Use:     "vars <template>",
	Aliases: []string{"v"},
	Short:   "List the variables of a template",
	Long: `List every variable occurrence in a template and its nested templates,
in document order, with its fully-qualified name.

Examples:
  tilde vars page.html
  tilde vars page.html --format json
  tilde vars page.html --names --relative`,
	Args: cobra.ExactArgs(1),
	RunE: runVars,
}

var (
	varsFormat   *formatValue
	varsNames    bool
	varsRelative bool
	varsStore    string
)

func init() {
	rootCmd.AddCommand(varsCmd)

	varsFormat = AddFormatFlag(varsCmd, "table", "table", "json", "yaml")
	varsCmd.Flags().BoolVarP(&varsNames, "names", "n", false, "list each distinct fully-qualified name once")
	varsCmd.Flags().BoolVar(&varsRelative, "relative", false, "with --names, qualify names relative to the template")
	varsCmd.Flags().StringVar(&varsStore, "store", "", "load templates from this SQLite store")
}

// varRow is one variable occurrence as printed by vars.
type varRow struct {
	Position    int    `json:"position" yaml:"position"`
	FQN         string `json:"fqn" yaml:"fqn"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

func runVars(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	e, err := newEnv(cmd, varsStore)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	tmpl, err := e.load(ctx, args[0])
	if err != nil {
		return err
	}

	if varsNames {
		names := tilde.AllVariableFQNs(tmpl, varsRelative)
		return writeFormatted(cmd.OutOrStdout(), varsFormat.String(), names, func(w io.Writer) error {
			for _, n := range names {
				if _, err := fmt.Fprintln(w, n); err != nil {
					return err
				}
			}
			return nil
		})
	}

	occs := tilde.AllVariableOccurrences(tmpl)
	rows := make([]varRow, len(occs))
	for i, o := range occs {
		rows[i] = varRow{Position: o.Position, FQN: o.FQN, Group: string(o.Group)}
		if o.HasPlaceholder {
			rows[i].Placeholder = o.Placeholder
		}
	}
	return writeFormatted(cmd.OutOrStdout(), varsFormat.String(), rows, func(w io.Writer) error {
		return printVarsTable(w, rows)
	})
}

func printVarsTable(w io.Writer, rows []varRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tVARIABLE\tGROUP\tPLACEHOLDER")
	for _, r := range rows {
		group := r.Group
		if group == "" {
			group = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%q\n", r.Position, r.FQN, group, r.Placeholder)
	}
	return tw.Flush()
}
