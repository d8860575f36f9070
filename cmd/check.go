package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/internal/build"
	tildeerr "github.com/conneroisu/tilde/internal/errors"
	"github.com/conneroisu/tilde/internal/watcher"
)

var checkCmd = &cobra.Command{
	Use:     "check <path>...",
	Aliases: []string{"c"},
	Short:   "Parse templates and report every error",
	Long: `Parse each template and report all parse errors, one per line, as

  path:line:column: CODE message

Directories are searched recursively for files with the extensions in
watch.extensions. Paths are resolved against templates.dir. The command
fails if any template does not parse.

Examples:
  tilde check page.html
  tilde check views/ partials/footer.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var (
	checkStore   string
	checkWorkers int
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkStore, "store", "", "check templates in this SQLite store instead of files")
	checkCmd.Flags().IntVarP(&checkWorkers, "workers", "j", 0, "templates parsed at once (default one per CPU)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	e, err := newEnv(cmd, checkStore)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	paths, err := e.checkTargets(args)
	if err != nil {
		return err
	}

	wm := build.NewWorkerManager(checkWorkers, e.load, e.logger)
	collector, summary := wm.Check(ctx, paths)

	printCheckErrors(cmd.OutOrStdout(), collector)
	if collector.HasErrors() {
		return fmt.Errorf("%d of %d template(s) failed to parse", summary.Failed, summary.Total)
	}
	e.logger.Info(ctx, "All templates parsed", "count", summary.Total, "duration", summary.Duration)
	return nil
}

// checkTargets expands directory arguments into the template files below
// them. Store-backed checks take the arguments as stored paths.
func (e *env) checkTargets(args []string) ([]string, error) {
	if e.store != nil {
		return args, nil
	}
	accept := watcher.ExtensionFilter(e.cfg.Watch.Extensions...)
	root := e.cfg.Templates.Dir
	var paths []string
	for _, arg := range args {
		full := filepath.Join(root, arg)
		err := filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != full && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if p != full && !accept(p) {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				rel = p
			}
			paths = append(paths, rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
	}
	return paths, nil
}

func printCheckErrors(w io.Writer, c *tildeerr.Collector) {
	for _, pe := range c.ParseErrors() {
		prefix := fmt.Sprintf("Error at line %d, column %d. ", pe.Line, pe.Column)
		fmt.Fprintf(w, "%s:%d:%d: %s %s\n", pe.Path, pe.Line, pe.Column, pe.Code,
			strings.TrimPrefix(pe.Message, prefix))
	}
	for _, err := range c.Errors()[len(c.ParseErrors()):] {
		fmt.Fprintln(w, err)
	}
}
