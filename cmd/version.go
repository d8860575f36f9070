package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/internal/version"
)

var versionShort bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for tilde including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  tilde version              # Show version
  tilde version --short      # Show the version number only
  tilde version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

var versionFormat *formatValue

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFormat = AddFormatFlag(versionCmd, "text", "text", "json", "yaml")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	info := version.Info()
	return writeFormatted(cmd.OutOrStdout(), versionFormat.String(), info, func(w io.Writer) error {
		if versionShort {
			_, err := fmt.Fprintln(w, info.Short())
			return err
		}
		kind := "development"
		if info.IsRelease() {
			kind = "release"
		}
		_, err := fmt.Fprintf(w, "tilde %s\n%s\nBuild type: %s\n", info.Short(), info.Detailed(), kind)
		return err
	})
}
