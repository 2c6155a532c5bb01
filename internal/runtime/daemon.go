// Package runtime wires the discovery subsystems and the RPC bridge into
// one running daemon, and owns the shutdown order fix noted in spec §9:
// watcher first, drain its event channel, then tear down RPC.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/config"
	"github.com/qai-labs/mavdiscovery/internal/devicestate"
	"github.com/qai-labs/mavdiscovery/internal/physical"
	"github.com/qai-labs/mavdiscovery/internal/rpc"
	"github.com/qai-labs/mavdiscovery/internal/supervisor"
	"github.com/qai-labs/mavdiscovery/internal/verifier"
	"github.com/qai-labs/mavdiscovery/internal/watcher"
)

const (
	serviceName    = "mavdiscovery"
	dispatcherJoin = 5 * time.Minute
)

// Version is set at build time via -ldflags, matching the teacher's
// version package convention; it defaults to "dev" otherwise.
var Version = "dev"

// Daemon owns every long-running subsystem for one process lifetime.
type Daemon struct {
	pkgCfg config.Package
	rpcCfg config.RPC
	logger *slog.Logger

	store      *devicestate.Store
	tracker    *physical.Tracker
	supervisor *supervisor.Supervisor
	client     *rpc.Client
	dispatcher *rpc.Dispatcher
	broadcaster *rpc.Broadcaster

	startedAt time.Time
}

// New builds every component but does not start any goroutines.
func New(pkgCfg config.Package, rpcCfg config.RPC, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}

	store := devicestate.New()
	tracker := physical.New(logger)

	vcfg := verifier.Config{
		Baudrates:         pkgCfg.Baudrates,
		ReadTimeoutMs:     pkgCfg.ReadTimeoutMs,
		PacketTimeoutMs:   pkgCfg.PacketTimeoutMs,
		MaxPacketSize:     pkgCfg.MaxPacketSize,
		RuntimeDeviceFile: pkgCfg.RuntimeDeviceFile,
	}
	sup := supervisor.New(store, tracker, vcfg, logger)

	client := rpc.NewClient(rpcCfg, logger)
	dispatcher := rpc.NewDispatcher(client, logger)
	broadcaster := rpc.NewBroadcaster(client, store, tracker, serviceName, logger)

	d := &Daemon{
		pkgCfg:      pkgCfg,
		rpcCfg:      rpcCfg,
		logger:      logger.With("module", "daemon"),
		store:       store,
		tracker:     tracker,
		supervisor:  sup,
		client:      client,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		startedAt:   time.Now(),
	}

	rpc.RegisterMethods(dispatcher, store, tracker, sup.OnAdd, rpc.ServiceInfo{Name: serviceName, Version: Version}, d.startedAt)

	// The runtime device file is written by the verifier itself on every
	// successful verification (spec §6), not here: gating it on
	// EventDeviceAdded would skip every secondary path that collapses
	// into an already-primary physical device.
	sup.Subscribe(func(e supervisor.Event) {
		switch e.Kind {
		case supervisor.EventDeviceAdded:
			rpc.PublishDeviceAdded(client, e.Record)
		case supervisor.EventDeviceRemoved:
			rpc.PublishDeviceRemoved(client, e.Path, e.Timestamp)
		}
	})

	return d
}

// Run starts the watcher, the RPC client, and the broadcaster, and
// blocks until ctx is canceled. It then shuts everything down in the
// order spec §9 recommends: watcher first, drain its events, then RPC.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.client.Start(d.dispatcher.HandleRaw); err != nil {
		return err
	}
	d.client.StartHeartbeat(ctx.Done())

	broadcastStop := make(chan struct{})
	go d.broadcaster.Run(broadcastStop)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	w := watcher.New(d.pkgCfg.DevicePathFilters, d.logger)
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- w.Run(watchCtx, watcher.Callbacks{
			OnAdd:    d.supervisor.OnAdd,
			OnRemove: d.supervisor.OnRemove,
		})
	}()

	<-ctx.Done()
	d.logger.Info("shutting down")

	cancelWatch()
	<-watchDone // drain: the watcher has stopped emitting before RPC teardown

	close(broadcastStop)
	d.dispatcher.Shutdown(dispatcherJoin)
	d.client.Stop()

	return nil
}
