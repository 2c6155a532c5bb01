//go:build !linux

package watcher

import (
	"context"
	"log/slog"
	"time"
)

// Watcher on non-Linux platforms polls /dev once per second, mirroring
// the 1s poll-yield bound of the source's select()-based loop without
// relying on a netlink-specific primitive.
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

func (w *Watcher) Run(ctx context.Context, cb Callbacks) error {
	known := make(map[string]struct{})
	for _, path := range enumerateExisting(w.filters) {
		known[path] = struct{}{}
		cb.OnAdd(path)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current := make(map[string]struct{})
			for _, path := range enumerateExisting(w.filters) {
				current[path] = struct{}{}
				if _, ok := known[path]; !ok {
					cb.OnAdd(path)
				}
			}
			for path := range known {
				if _, ok := current[path]; !ok {
					cb.OnRemove(path)
				}
			}
			known = current
		}
	}
}
