// Package cmd provides the tilde command-line interface.
//
// Configuration is read, from highest to lowest priority, from command-line
// flags, TILDE_* environment variables and the configuration file. The
// file is the one given with --config, else the one named by
// TILDE_CONFIG_FILE, else .tilde.yml in the working directory.
//
// Environment Variables:
//
//	TILDE_CONFIG_FILE: path to a configuration file
//	TILDE_CACHE_SIZE: template cache capacity (0 disables, -1 unbounded)
//	TILDE_TEMPLATES_DIR: directory template paths are resolved against
//	TILDE_TEMPLATES_STORE: SQLite template store to load from instead
//	TILDE_RENDER_NAME_MAPPER: how variable names map to data keys
//	TILDE_LOG_LEVEL: debug, info, warn or error
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/tilde/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tilde",
	Short: "Render and inspect tilde text templates",
	Long: `tilde renders logic-less text templates. Templates contain only
variables (~%name%), nested templates (~%%begin:rows% ... ~%%end:rows%) and
includes (~%%include:footer.html%%); all logic lives in the data.

Quick Start:
  tilde render page.html --data page.yaml   Render a template with data
  tilde vars page.html                      List the variables to fill in
  tilde tree page.html                      Show the nested template hierarchy
  tilde check views/                        Report every parse error
  tilde watch page.html --data page.yaml    Re-render whenever files change`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .tilde.yml, can also use TILDE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", config.DefaultLogLevel,
		"log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points the global viper instance at its configuration sources.
func initConfig(cmd *cobra.Command, _ []string) error {
	_, err := config.Init(viper.GetViper(), cfgFile)
	return err
}
