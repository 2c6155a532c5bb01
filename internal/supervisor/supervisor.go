// Package supervisor implements the Discovery Supervisor: it spawns and
// retires per-path verifiers and routes their outcomes into the physical
// tracker and the event dispatcher.
package supervisor

import (
	"log/slog"
	"sync"

	"github.com/qai-labs/mavdiscovery/internal/devicestate"
	"github.com/qai-labs/mavdiscovery/internal/physical"
	"github.com/qai-labs/mavdiscovery/internal/record"
	"github.com/qai-labs/mavdiscovery/internal/verifier"
)

// Supervisor holds the path -> Verifier map described in spec §4.7.
type Supervisor struct {
	mu        sync.Mutex
	verifiers map[string]*verifier.Verifier

	store      *devicestate.Store
	tracker    *physical.Tracker
	cfg        verifier.Config
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func New(store *devicestate.Store, tracker *physical.Tracker, cfg verifier.Config, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		verifiers:  make(map[string]*verifier.Verifier),
		store:      store,
		tracker:    tracker,
		cfg:        cfg,
		dispatcher: NewDispatcher(),
		logger:     logger.With("module", "discovery_supervisor"),
	}
}

// Subscribe registers fn to receive DeviceAdded/DeviceRemoved events.
func (s *Supervisor) Subscribe(fn func(Event)) {
	s.dispatcher.Subscribe(fn)
}

// OnAdd starts a verifier for path if one is not already tracked.
func (s *Supervisor) OnAdd(path string) {
	s.mu.Lock()
	if _, exists := s.verifiers[path]; exists {
		s.mu.Unlock()
		return
	}
	s.store.Add(path)
	v := verifier.New(path, s.cfg, s.store, s.onVerified, s.logger)
	s.verifiers[path] = v
	s.mu.Unlock()

	v.Start()
}

// OnRemove stops and drops path's verifier (if any), removes it from the
// tracker, and emits DeviceRemoved. The event fires after the stop
// request but not necessarily after the verifier has exited (spec §5).
func (s *Supervisor) OnRemove(path string) {
	s.mu.Lock()
	v, ok := s.verifiers[path]
	delete(s.verifiers, path)
	s.mu.Unlock()

	if ok {
		v.Stop()
		go func() {
			if !v.Wait(verifier.StopGrace) {
				s.logger.Warn("verifier did not stop within grace period, forcing", "path", path)
				v.Wait(verifier.ForceJoinTimeout)
			}
		}()
	}

	s.tracker.Remove(path)
	s.store.Remove(path)

	s.dispatcher.emit(Event{Kind: EventDeviceRemoved, Path: path, Timestamp: utcNow()})
}

// onVerified is the verifier callback: it registers the record with the
// physical tracker and emits DeviceAdded only for the primary path of a
// Verified device, matching spec §4.7's collapse logic.
func (s *Supervisor) onVerified(rec record.DeviceRecord) {
	switch rec.State {
	case record.StateVerified:
		if s.tracker.Register(rec.Path, rec) {
			s.dispatcher.emit(Event{Kind: EventDeviceAdded, Record: rec, Timestamp: utcNow()})
		} else {
			s.logger.Info("secondary path collapsed into existing physical device", "path", rec.Path)
		}
	case record.StateNonMavlink:
		s.logger.Info("device exhausted baud list, not mavlink", "path", rec.Path)
	}
}

// ActiveCount returns the number of tracked verifiers, for diagnostics. A
// verifier stays tracked after its pass completes, until OnRemove.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verifiers)
}
