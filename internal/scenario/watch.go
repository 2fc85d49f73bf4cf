package scenario

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultWatchInterval is used when NewWatcher gets a non-positive interval.
const DefaultWatchInterval = 2 * time.Second

// Watcher polls the loader's files and invalidates its cache when one
// changes, appears or disappears.
type Watcher struct {
	loader   *Loader
	interval time.Duration
	logger   *slog.Logger
	onChange func(path string)

	lastMTime map[string]time.Time
}

// NewWatcher creates a watcher for loader. onChange may be nil.
func NewWatcher(loader *Loader, interval time.Duration, logger *slog.Logger, onChange func(string)) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		loader:    loader,
		interval:  interval,
		logger:    logger,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// prime cache
	w.scan(true)
	for {
		select {
		case <-ticker.C:
			w.scan(false)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) files() []string {
	paths := []string{w.loader.paths.DefaultPath()}
	matches, _ := filepath.Glob(filepath.Join(w.loader.paths.ScenarioDir(), "*.yaml"))
	return append(paths, matches...)
}

// scan compares mtimes with the previous scan and reports the first
// difference. One invalidation covers every change in the same tick.
func (w *Watcher) scan(prime bool) bool {
	seen := make(map[string]bool)
	var changed []string
	for _, p := range w.files() {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		seen[p] = true
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if !ok || mt.After(last) {
			changed = append(changed, p)
		}
	}
	for p := range w.lastMTime {
		if !seen[p] {
			delete(w.lastMTime, p)
			changed = append(changed, p)
		}
	}
	if prime || len(changed) == 0 {
		return false
	}

	w.loader.Invalidate()
	for _, p := range changed {
		w.logger.Info("scenario file changed", "path", p)
		if w.onChange != nil {
			w.onChange(p)
		}
	}
	return true
}
