package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/pkg/tilde"
)

var treeCmd = &cobra.Command{
	Use:     "tree <template>",
	Aliases: []string{"t"},
	Short:   "Show the nested template hierarchy",
	Long: `Print the hierarchy of nested and included templates, one per line,
indented by depth. With --parts, print every part of every template
instead.

Examples:
  tilde tree page.html
  tilde tree page.html --parts`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

var (
	treeParts bool
	treeStore string
)

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().BoolVarP(&treeParts, "parts", "p", false, "print the part table")
	treeCmd.Flags().StringVar(&treeStore, "store", "", "load templates from this SQLite store")
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	e, err := newEnv(cmd, treeStore)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	tmpl, err := e.load(ctx, args[0])
	if err != nil {
		return err
	}
	if treeParts {
		return tilde.PrintParts(cmd.OutOrStdout(), tmpl)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), tilde.TemplateHierarchy(tmpl))
	return err
}
