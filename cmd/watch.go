package cmd

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch <template>",
	Aliases: []string{"w"},
	Short:   "Re-render a template whenever it or its data changes",
	Long: `Render a template, then watch templates.dir and the data file and render
again after every change. Changed templates, and every cached template that
includes them, are dropped from the cache before the next render. A failed
render is logged and watching continues.

Examples:
  tilde watch page.html --data page.yaml
  tilde watch page.html -d page.yaml --out page.out.html`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchData DataFlags
	watchOut  string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	AddDataFlags(watchCmd.Flags(), &watchData)
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "write output to a file instead of stdout")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(cmd, "")
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	path := args[0]
	renderOnce := func() {
		data, err := watchData.Load(cmd.InOrStdin())
		if err == nil {
			var out string
			out, err = e.render(ctx, path, data, watchData.VarGroup())
			if err == nil {
				err = writeOutput(cmd.OutOrStdout(), watchOut, out)
			}
		}
		if err != nil {
			e.logger.Error(ctx, err, "Render failed", "template", path)
		}
	}

	fw, err := watcher.NewFileWatcher(e.cfg.Watch.Debounce, e.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.AddRecursive(e.cfg.Templates.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.cfg.Templates.Dir, err)
	}
	accept := watcher.ExtensionFilter(e.cfg.Watch.Extensions...)
	dataFile := ""
	if watchData.File != "" && watchData.File != "-" {
		if dataFile, err = filepath.Abs(watchData.File); err != nil {
			return err
		}
		if err := fw.AddPath(filepath.Dir(dataFile)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", watchData.File, err)
		}
	}
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(func(p string) bool {
		return accept(p) || p == dataFile
	})
	fw.AddHandler(watcher.InvalidateHandler(e.cache, e.cfg.Templates.Dir, e.logger))
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		e.logger.Info(ctx, "Files changed, rendering", "changes", len(events))
		renderOnce()
		return nil
	})

	renderOnce()
	if err := fw.Start(ctx); err != nil {
		return err
	}
	e.logger.Info(ctx, "Watching for changes", "dir", e.cfg.Templates.Dir, "template", path)
	<-ctx.Done()
	return nil
}

