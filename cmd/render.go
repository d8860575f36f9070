package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tilde/internal/observability"
	"github.com/conneroisu/tilde/pkg/tilde"
)

var renderCmd = &cobra.Command{
	Use:     "render <template>",
	Aliases: []string{"r"},
	Short:   "Render a template with a data file",
	Long: `Render a template, filling it from a YAML or JSON data file.

Variables are read from the data object by name, and every nested template
is populated from the value of the same name: once per element for lists,
once for any other value, and not at all when the value is null or absent.
Rendering fails if any variable is left without a value.

Examples:
  tilde render page.html --data page.yaml
  tilde render page.html -d page.json --group html --out page.out.html
  cat data.json | tilde render page.html --data -
  tilde render page.html --store templates.db --stats`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderData  DataFlags
	renderOut   string
	renderStore string
	renderStats bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	AddDataFlags(renderCmd.Flags(), &renderData)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "write output to a file instead of stdout")
	renderCmd.Flags().StringVar(&renderStore, "store", "", "load templates from this SQLite store")
	renderCmd.Flags().BoolVar(&renderStats, "stats", false, "print render and cache metrics to stderr")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	e, err := newEnv(cmd, renderStore)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	data, err := renderData.Load(cmd.InOrStdin())
	if err != nil {
		return err
	}
	out, err := e.render(ctx, args[0], data, renderData.VarGroup())
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), renderOut, out); err != nil {
		return err
	}
	if renderStats {
		return printStats(ctx, cmd.ErrOrStderr(), e)
	}
	return nil
}

// render loads path and renders it with data in one traced run.
func (e *env) render(ctx context.Context, path string, data any, g tilde.VarGroup) (string, error) {
	runID := observability.NewRunID()
	logger := e.logger.WithRunID(runID)

	var sb strings.Builder
	err := e.in.Render(ctx, path, runID, func(ctx context.Context) (int64, error) {
		tmpl, err := e.load(ctx, path)
		if err != nil {
			return 0, err
		}
		s := tmpl.NewRenderSession(e.sessions...)
		if data != nil {
			if err := s.Insert(data, g); err != nil {
				return 0, err
			}
		}
		if err := s.RenderTo(&sb); err != nil {
			return 0, err
		}
		return int64(sb.Len()), nil
	})
	if err != nil {
		logger.Error(ctx, err, "Render failed", "template", path)
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	logger.Debug(ctx, "Rendered template", "template", path, "bytes", sb.Len())
	return sb.String(), nil
}

// writeOutput writes s to the file at path, or to w when path is empty.
func writeOutput(w io.Writer, path, s string) error {
	if path == "" {
		_, err := io.WriteString(w, s)
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printStats(ctx context.Context, w io.Writer, e *env) error {
	points, err := e.obs.Snapshot(ctx)
	if err != nil {
		return err
	}
	stats := struct {
		Cache   tilde.CacheStats            `yaml:"cache"`
		Metrics []observability.MetricPoint `yaml:"metrics"`
	}{e.cache.Stats(), points}
	return writeFormatted(w, "yaml", stats, nil)
}
