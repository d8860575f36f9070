package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/internal/config"
	"github.com/conneroisu/tilde/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage a SQLite template store",
	Long: `Manage a SQLite database of template sources. Templates in a store are
loaded with --store on render, vars, tree and check, or by setting
templates.store, and resolve their includes against the same store.

Examples:
  tilde store import views/ --db templates.db
  tilde store list --db templates.db
  tilde store cat page.html --db templates.db
  tilde store rm old.html --db templates.db`,
}

var storeImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy template files from a directory into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreImport,
}

var storeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored templates",
	Args:    cobra.NoArgs,
	RunE:    runStoreList,
}

var storeCatCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a stored template",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreCat,
}

var storeRmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove templates from the store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStoreRm,
}

var (
	storeDB         string
	storeExtensions []string
	storeFormat     *formatValue
)

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeImportCmd, storeListCmd, storeCatCmd, storeRmCmd)

	storeCmd.PersistentFlags().StringVar(&storeDB, "db", "", "store database (default templates.store)")
	storeImportCmd.Flags().StringSliceVarP(&storeExtensions, "ext", "e", nil,
		"extensions to import (default watch.extensions)")
	storeFormat = AddFormatFlag(storeListCmd, "table", "table", "json", "yaml")
}

// openStore opens the store named by --db or templates.store.
func openStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	path := storeDB
	if path == "" {
		path = cfg.Templates.Store
	}
	if path == "" {
		return nil, nil, errors.New("no template store: use --db or set templates.store")
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open template store: %w", err)
	}
	return s, cfg, nil
}

func runStoreImport(cmd *cobra.Command, args []string) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	exts := storeExtensions
	if len(exts) == 0 {
		exts = cfg.Watch.Extensions
	}
	imported, err := store.ImportDir(s, args[0], exts...)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}
	for _, p := range imported {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d template(s)\n", len(imported))
	return nil
}

func runStoreList(cmd *cobra.Command, _ []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	infos, err := s.List()
	if err != nil {
		return err
	}
	if infos == nil {
		infos = []store.Info{}
	}
	return writeFormatted(cmd.OutOrStdout(), storeFormat.String(), infos, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tSIZE\tUPDATED")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Path, info.Size, info.UpdatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

func runStoreCat(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	src, err := s.Get(args[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), src)
	return err
}

func runStoreRm(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	for _, p := range args {
		if err := s.Delete(p); err != nil {
			return err
		}
	}
	return nil
}
