package watcher

import (
	"context"
	"path/filepath"

	"github.com/conneroisu/tilde/internal/logging"
	"github.com/conneroisu/tilde/pkg/tilde"
)

// InvalidateHandler drops cached templates affected by a batch of changes.
// Cache entries are keyed by the paths their resolver was given, so each
// changed file is tried both as reported and relative to root.
func InvalidateHandler(cache *tilde.Cache, root string, logger logging.Logger) ChangeHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	return func(events []ChangeEvent) error {
		dropped := 0
		for _, ev := range events {
			for _, p := range candidatePaths(absRoot, ev.Path) {
				dropped += cache.Invalidate(p)
			}
		}
		logger.Debug(context.Background(), "Invalidated templates",
			"changes", len(events), "dropped", dropped)
		return nil
	}
}

func candidatePaths(root, path string) []string {
	out := []string{path}
	abs, err := filepath.Abs(path)
	if err != nil {
		return out
	}
	if abs != path {
		out = append(out, abs)
	}
	if rel, err := filepath.Rel(root, abs); err == nil && rel != path {
		out = append(out, rel)
	}
	return out
}
