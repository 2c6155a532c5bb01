package supervisor

import (
	"sync"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

type EventKind int

const (
	EventDeviceAdded EventKind = iota
	EventDeviceRemoved
)

// Event is the typed variant the supervisor fans out: {Verified(record),
// Removed(path)} per the DESIGN NOTES' recommended shape (spec §9).
type Event struct {
	Kind      EventKind
	Record    record.DeviceRecord
	Path      string
	Timestamp string
}

// Dispatcher holds its mutex while iterating subscribers; subscriber
// callbacks must not call back into Subscribe or emit (spec §5).
type Dispatcher struct {
	mu   sync.Mutex
	subs []func(Event)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Subscribe(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

func (d *Dispatcher) emit(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, fn := range d.subs {
		fn(e)
	}
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
