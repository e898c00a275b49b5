package suppress

import (
	"sync"
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Cooldowns is the in-memory dismiss ledger keyed by "pkg:type".
// Written on dismiss, read on the next ingestion of the same key.
// Persistence is layered on by the caller; lookups never block.
type Cooldowns struct {
	mu    sync.RWMutex
	byKey map[string]time.Time
}

// NewCooldowns creates an empty ledger.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{byKey: make(map[string]time.Time)}
}

// Hydrate seeds the ledger from persisted records.
func (c *Cooldowns) Hydrate(records []types.CooldownRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		c.byKey[r.Key()] = r.LastDismissedAt
	}
}

// Record stores the dismissal time for a package and category.
func (c *Cooldowns) Record(pkg string, cat types.Category, at time.Time) {
	c.mu.Lock()
	c.byKey[types.CooldownKey(pkg, cat)] = at
	c.mu.Unlock()
}

// Last returns the most recent dismissal for a package and category.
func (c *Cooldowns) Last(pkg string, cat types.Category) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.byKey[types.CooldownKey(pkg, cat)]
	return at, ok
}
