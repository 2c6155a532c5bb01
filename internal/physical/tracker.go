// Package physical collapses the many OS paths that can belong to a
// single hardware unit into one "primary" path.
package physical

import (
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

var acmPattern = regexp.MustCompile(`^/dev/ttyACM(\d+)$`)

// Tracker is the PhysicalTracker: two mutually-consistent maps kept
// under a single critical section, with no lock nesting against the
// device state store.
type Tracker struct {
	mu         sync.Mutex
	byPhysical map[string]*record.PhysicalDevice
	byPath     map[string]string // path -> physicalId
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		byPhysical: make(map[string]*record.PhysicalDevice),
		byPath:     make(map[string]string),
		logger:     logger.With("module", "physical_tracker"),
	}
}

// Register implements the registration algorithm of spec §4.3. It
// returns whether this call is the one that elected path as primary —
// either by creating a new physical device or by outranking the
// existing primary — so callers can emit a "newly primary" signal
// exactly once per election instead of re-deriving it from IsPrimary
// after the fact, which would also be true on a stale re-registration.
func (t *Tracker) Register(path string, rec record.DeviceRecord) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, known := t.byPath[path]; known {
		t.logger.Info("path already registered, ignoring", "path", path)
		return false
	}

	physicalID := rec.USB.PhysicalDeviceID
	if physicalID == "" {
		physicalID = "serial:" + rec.USB.SerialNumber
		t.logger.Warn("falling back to serial-keyed physical id", "path", path, "physicalId", physicalID)
	}

	t.byPath[path] = physicalID

	dev, exists := t.byPhysical[physicalID]
	if !exists {
		t.byPhysical[physicalID] = &record.PhysicalDevice{
			PhysicalID:  physicalID,
			PrimaryPath: path,
			Paths:       []string{path},
			Snapshot:    rec.Clone(),
		}
		return true
	}

	dev.Paths = append(dev.Paths, path)
	if outranks(path, dev.PrimaryPath) {
		dev.PrimaryPath = path
		dev.Snapshot = rec.Clone()
		return true
	}
	return false
}

// Remove implements spec §4.3's removal + re-election algorithm. It does
// not refresh Snapshot: that only happens when a higher-ranked path is
// registered, never on removal.
func (t *Tracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	physicalID, ok := t.byPath[path]
	if !ok {
		return
	}
	delete(t.byPath, path)

	dev, ok := t.byPhysical[physicalID]
	if !ok {
		return
	}
	dev.Paths = removeString(dev.Paths, path)

	if len(dev.Paths) == 0 {
		delete(t.byPhysical, physicalID)
		return
	}

	if dev.PrimaryPath == path {
		dev.PrimaryPath = electPrimary(dev.Paths)
	}
}

func (t *Tracker) IsPrimary(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	physicalID, ok := t.byPath[path]
	if !ok {
		return false
	}
	dev := t.byPhysical[physicalID]
	return dev != nil && dev.PrimaryPath == path
}

func (t *Tracker) PrimaryOf(physicalID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dev, ok := t.byPhysical[physicalID]
	if !ok {
		return "", false
	}
	return dev.PrimaryPath, true
}

func (t *Tracker) PathsOf(physicalID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	dev, ok := t.byPhysical[physicalID]
	if !ok {
		return nil
	}
	out := make([]string, len(dev.Paths))
	copy(out, dev.Paths)
	return out
}

func (t *Tracker) PhysicalIDOf(path string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byPath[path]
	return id, ok
}

func (t *Tracker) AllPhysical() []record.PhysicalDevice {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]record.PhysicalDevice, 0, len(t.byPhysical))
	for _, dev := range t.byPhysical {
		out = append(out, *dev)
	}
	return out
}

// outranks reports whether candidate should displace current as primary,
// per the ACM-number tie-break rule in spec §4.3.
func outranks(candidate, current string) bool {
	candNum, candIsACM := acmNumber(candidate)
	curNum, curIsACM := acmNumber(current)

	switch {
	case candIsACM && curIsACM:
		return candNum < curNum
	case candIsACM && !curIsACM:
		return true
	default:
		return false
	}
}

// electPrimary re-runs the tie-break rule across the remaining paths
// after a removal. First-registered (paths[0]) wins when none match the
// ACM pattern.
func electPrimary(paths []string) string {
	best := paths[0]
	for _, p := range paths[1:] {
		if outranks(p, best) {
			best = p
		}
	}
	return best
}

func acmNumber(path string) (int, bool) {
	m := acmPattern.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
