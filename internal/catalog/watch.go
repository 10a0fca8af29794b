package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FixtureWatcher reloads an InMemory source whenever its fixture file
// changes on disk.
//
// The parent directory is watched rather than the file itself, so
// editors that save by writing a new file and renaming it over the old
// one are picked up too.
type FixtureWatcher struct {
	path    string
	target  *InMemory
	load    func() ([]Product, error)
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// WatchFixtures starts watching path. load rebuilds the full product list
// and its result replaces target's products on every change. The watch is
// registered before WatchFixtures returns; call Run to process events.
func WatchFixtures(logger *slog.Logger, path string, target *InMemory, load func() ([]Product, error)) (*FixtureWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve fixtures path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("cannot add fixtures directory to watcher: %w", err)
	}

	return &FixtureWatcher{
		path:    abs,
		target:  target,
		load:    load,
		logger:  logger,
		watcher: watcher,
	}, nil
}

// Run processes file events until ctx is done or the watcher fails. A
// fixture file that does not load is logged and the previous products
// stay in place.
func (w *FixtureWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				w.logger.Debug("Received unhandled event from fsnotify.", "event", event.String())
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (w *FixtureWatcher) reload() {
	products, err := w.load()
	if err != nil {
		w.logger.Warn("fixtures reload failed, keeping previous products", "path", w.path, "error", err)
		return
	}
	w.target.Replace(products)
	w.logger.Info("fixtures reloaded", "path", w.path, "products", len(products))
}
