package order

import (
	"sync"
)

// Registry is a concurrency-safe mapping from order id to Record.
//
// Writers come from the subscription ingress, and readers are the
// goal executions, so a Registry sees concurrent Puts and Gets for
// arbitrary keys.  One lock covers each whole operation; no partial
// record is ever visible.
type Registry struct {
	sync.RWMutex

	records map[string]*Record
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Record, 32),
	}
}

// Put inserts or overwrites the record under its own order id.
//
// A re-delivered order is last-write-wins.
func (r *Registry) Put(rec *Record) {
	r.Lock()
	r.records[rec.OrderID] = rec
	r.Unlock()
}

// Get returns the record for the given order id or a NotFound error.
func (r *Registry) Get(id string) (*Record, error) {
	r.RLock()
	rec, have := r.records[id]
	r.RUnlock()
	if !have {
		return nil, &NotFound{OrderID: id}
	}
	return rec, nil
}

// Len reports the number of records.
func (r *Registry) Len() int {
	r.RLock()
	n := len(r.records)
	r.RUnlock()
	return n
}
