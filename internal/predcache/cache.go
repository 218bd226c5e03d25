package predcache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mcules/gender-form/internal/activity"
	"github.com/mcules/gender-form/internal/genderize"
)

// Entry is one cached definitive outcome for a name. Server and network
// errors are never cached; only 200 and 404 answers are.
type Entry struct {
	Result   *genderize.Result
	NotFound bool
	At       time.Time
}

// Cache is a TTL map of name -> last definitive prediction outcome, so
// repeated submits for the same name do not re-hit the rate-limited
// external endpoint.
type Cache struct {
	TTL time.Duration

	// Tick frequency of the janitor.
	Interval time.Duration

	Activity *activity.Log
	Logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		TTL:      ttl,
		Interval: time.Minute,
		entries:  map[string]Entry{},
	}
}

// Get returns the cached outcome for name if it is still fresh.
func (c *Cache) Get(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return Entry{}, false
	}
	if time.Since(e.At) > c.TTL {
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) PutResult(name string, r *genderize.Result) {
	c.put(name, Entry{Result: r, At: time.Now()})
}

func (c *Cache) PutNotFound(name string) {
	c.put(name, Entry{NotFound: true, At: time.Now()})
}

func (c *Cache) put(name string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = e
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Run prunes expired entries until ctx is done. Expired entries are already
// invisible to Get; pruning only bounds memory.
func (c *Cache) Run(ctx context.Context) {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.prune(time.Now())
		}
	}
}

func (c *Cache) prune(now time.Time) {
	c.mu.Lock()
	removed := 0
	for name, e := range c.entries {
		if now.Sub(e.At) > c.TTL {
			delete(c.entries, name)
			removed++
		}
	}
	c.mu.Unlock()

	if removed == 0 {
		return
	}
	if c.Activity != nil {
		c.Activity.Add(activity.Event{
			At:   now,
			Type: activity.EventCachePrune,
			Note: "expired prediction entries removed",
		})
	}
	if c.Logger != nil {
		c.Logger.Debug("prediction cache pruned", zap.Int("removed", removed))
	}
}
