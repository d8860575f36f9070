// Package build loads and parses many templates concurrently.
//
// WorkerManager runs a fixed pool of workers over a list of template
// paths. Loading goes through a caller-supplied function, normally a
// tilde.Cache load, so templates included by several files are parsed
// once and shared.
package build

import (
	"context"
	"runtime"
	"sync"
	"time"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
	"github.com/conneroisu/tilde/internal/logging"
	"github.com/conneroisu/tilde/pkg/tilde"
)

// LoadFunc loads and parses the template at path.
type LoadFunc func(ctx context.Context, path string) (*tilde.Template, error)

// Result is the outcome of loading one path.
type Result struct {
	Path     string
	Template *tilde.Template
	Err      error
	Duration time.Duration
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total    int
	Failed   int
	Duration time.Duration
}

// WorkerManager manages a pool of template-loading workers.
type WorkerManager struct {
	// workers is the number of concurrent loads
	workers int
	load    LoadFunc
	logger  logging.Logger
}

// NewWorkerManager creates a worker manager running workers loads at a
// time. A non-positive count uses one worker per CPU.
func NewWorkerManager(workers int, load LoadFunc, logger logging.Logger) *WorkerManager {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &WorkerManager{workers: workers, load: load, logger: logger.WithComponent("build")}
}

// Workers returns the pool size.
func (wm *WorkerManager) Workers() int {
	return wm.workers
}

type task struct {
	index int
	path  string
}

// Run loads every path and returns the results in the order of paths.
// Paths not started before ctx is done fail with the context's error.
func (wm *WorkerManager) Run(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	tasks := make(chan task)

	var wg sync.WaitGroup
	for i := 0; i < min(wm.workers, len(paths)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results[t.index] = wm.process(ctx, t.path)
			}
		}()
	}

	for i, p := range paths {
		if ctx.Err() != nil {
			results[i] = Result{Path: p, Err: ctx.Err()}
			continue
		}
		select {
		case tasks <- task{index: i, path: p}:
		case <-ctx.Done():
			results[i] = Result{Path: p, Err: ctx.Err()}
		}
	}
	close(tasks)
	wg.Wait()
	return results
}

func (wm *WorkerManager) process(ctx context.Context, path string) Result {
	start := time.Now()
	t, err := wm.load(ctx, path)
	r := Result{Path: path, Template: t, Err: err, Duration: time.Since(start)}
	if err != nil {
		wm.logger.Debug(ctx, "Template failed to load", "path", path, "error", err.Error())
	} else {
		wm.logger.Debug(ctx, "Template loaded", "path", path, "duration", r.Duration)
	}
	return r
}

// Check loads every path and collects the failures.
func (wm *WorkerManager) Check(ctx context.Context, paths []string) (*tildeerr.Collector, Summary) {
	start := time.Now()
	results := wm.Run(ctx, paths)

	collector := tildeerr.NewCollector()
	summary := Summary{Total: len(results)}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			collector.Add(r.Path, r.Err)
		}
	}
	summary.Duration = time.Since(start)
	return collector, summary
}
