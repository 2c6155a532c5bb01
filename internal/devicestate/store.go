// Package devicestate holds the process-wide path -> DeviceRecord map.
package devicestate

import (
	"sync"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

// Store is the process-wide DeviceStateStore. The zero value is not
// usable; construct with New. All reads return value copies: callers
// never see a live reference into the store (spec §4.4).
type Store struct {
	mu      sync.Mutex
	records map[string]*record.DeviceRecord
}

func New() *Store {
	return &Store{records: make(map[string]*record.DeviceRecord)}
}

// Add inserts a default Unknown record for path, iff one is not already
// present. It is a no-op when the path is already tracked.
func (s *Store) Add(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[path]; ok {
		return
	}
	s.records[path] = &record.DeviceRecord{
		Path:      path,
		State:     record.StateUnknown,
		Timestamp: now(),
	}
}

// Update applies fn to the stored record under the store's lock. It is a
// no-op if path is absent. Every field fn writes, state included, changes
// within the same critical section, so concurrent readers never observe
// a torn update.
func (s *Store) Update(path string, fn func(r *record.DeviceRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[path]
	if !ok {
		return
	}
	fn(r)
}

// SetState is a convenience wrapper around Update for the common case of
// transitioning only the state field, stamping the timestamp.
func (s *Store) SetState(path string, state record.DeviceState) {
	s.Update(path, func(r *record.DeviceRecord) {
		r.State = state
		r.Timestamp = now()
	})
}

// Remove sets state to Removed and erases the entry in one critical
// section, matching the store's "no torn update" contract.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[path]; ok {
		r.State = record.StateRemoved
	}
	delete(s.records, path)
}

// Get returns a value-copy snapshot of path's record, if present.
func (s *Store) Get(path string) (record.DeviceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[path]
	if !ok {
		return record.DeviceRecord{}, false
	}
	return r.Clone(), true
}

// All returns value-copy snapshots of every tracked record.
func (s *Store) All() []record.DeviceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.DeviceRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
