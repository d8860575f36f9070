package errors

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Collector gathers errors from many independent compilations, for tools
// that check a whole directory of templates at once.
type Collector struct {
	parseErrors []*ParseError
	errors      []error
	mutex       sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		parseErrors: make([]*ParseError, 0),
		errors:      make([]error, 0),
	}
}

// Add records err. Parse errors are kept apart so they can be reported with
// their positions; path fills in a missing template path.
func (c *Collector) Add(path string, err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var pe *ParseError
	if errors.As(err, &pe) {
		c.parseErrors = append(c.parseErrors, pe.WithPath(path))
		return
	}
	c.errors = append(c.errors, fmt.Errorf("%s: %w", path, err))
}

// ParseErrors returns the collected parse errors ordered by path and line.
func (c *Collector) ParseErrors() []*ParseError {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]*ParseError, len(c.parseErrors))
	copy(result, c.parseErrors)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Line < result[j].Line
	})
	return result
}

// Errors returns every collected error, parse errors first.
func (c *Collector) Errors() []error {
	pes := c.ParseErrors()
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	all := make([]error, 0, len(pes)+len(c.errors))
	for _, pe := range pes {
		all = append(all, pe)
	}
	return append(all, c.errors...)
}

// HasErrors returns true if there are any errors.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.parseErrors) > 0 || len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.parseErrors) + len(c.errors)
}

// Clear clears all errors.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.parseErrors = c.parseErrors[:0]
	c.errors = c.errors[:0]
}
