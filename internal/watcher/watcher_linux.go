//go:build linux

package watcher

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher subscribes to tty-subsystem device events via inotify on /dev,
// the nearest portable equivalent to the source's netlink udev monitor.
type Watcher struct {
	filters []string
	logger  *slog.Logger
}

func New(filters []string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{filters: filters, logger: logger.With("module", "device_monitor")}
}

// Run enumerates existing devices as synthetic adds, then watches /dev
// until ctx is canceled. It returns after the watcher is torn down.
func (w *Watcher) Run(ctx context.Context, cb Callbacks) error {
	for _, path := range enumerateExisting(w.filters) {
		w.logger.Info("found existing device", "path", path)
		cb.OnAdd(path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add("/dev"); err != nil {
		return err
	}

	w.logger.Info("device monitor started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("device monitor stopped")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !matchesFilter(ev.Name, w.filters) {
				continue
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				w.logger.Info("device added", "path", ev.Name)
				cb.OnAdd(ev.Name)
			case ev.Op&fsnotify.Remove != 0:
				w.logger.Info("device removed", "path", ev.Name)
				cb.OnRemove(ev.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}
