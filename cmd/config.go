package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/tilde/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the configuration file
and TILDE_* environment variables.

Examples:
  tilde config show
  TILDE_CACHE_SIZE=-1 tilde config show --format json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and print warnings",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configShowFormat *formatValue

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)

	configShowFormat = AddFormatFlag(configShowCmd, "yaml", "yaml", "json")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", used)
	}
	return writeFormatted(cmd.OutOrStdout(), configShowFormat.String(), cfg, nil)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	result := config.ValidateConfigWithDetails(cfg)
	if result.HasWarnings() {
		fmt.Fprint(cmd.ErrOrStderr(), result.String())
	}
	_, err = io.WriteString(cmd.OutOrStdout(), "Configuration is valid\n")
	return err
}
