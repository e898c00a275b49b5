package island

import (
	"sync"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Dump is the bounded ring of recent lifecycle transitions backing
// the debug endpoint.
type Dump struct {
	mu      sync.RWMutex
	cap     int
	records []types.TransitionRecord
}

// NewDump creates a ring holding at most capacity records.
func NewDump(capacity int) *Dump {
	if capacity <= 0 {
		capacity = 256
	}
	return &Dump{cap: capacity}
}

// Add appends one record, evicting the oldest beyond capacity.
func (d *Dump) Add(rec types.TransitionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, rec)
	if len(d.records) > d.cap {
		d.records = d.records[len(d.records)-d.cap:]
	}
}

// Records returns a copy of the ring, oldest first.
func (d *Dump) Records() []types.TransitionRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]types.TransitionRecord, len(d.records))
	copy(out, d.records)
	return out
}
