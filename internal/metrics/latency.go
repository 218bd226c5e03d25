package metrics

import (
	"sync"
	"time"
)

type UpstreamLatency struct {
	// EWMA of RTT in milliseconds.
	EWMAms float64

	// Counters (rolling since start).
	OK    uint64
	Error uint64

	// Last observed RTT.
	LastRTT time.Duration

	// Timestamp of last observation.
	LastAt time.Time
}

// Tracker keeps per-host latency stats for outbound prediction calls.
type Tracker struct {
	mu        sync.RWMutex
	alpha     float64
	upstreams map[string]*UpstreamLatency
}

// NewTracker creates a tracker with EWMA smoothing factor alpha.
// Typical alpha: 0.1..0.3 (higher reacts faster).
func NewTracker(alpha float64) *Tracker {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.2
	}
	return &Tracker{
		alpha:     alpha,
		upstreams: map[string]*UpstreamLatency{},
	}
}

func (t *Tracker) ObserveOK(host string, rtt time.Duration) {
	t.observe(host, rtt, true)
}

func (t *Tracker) ObserveError(host string, rtt time.Duration) {
	t.observe(host, rtt, false)
}

func (t *Tracker) observe(host string, rtt time.Duration, ok bool) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.upstreams[host]
	if u == nil {
		u = &UpstreamLatency{}
		t.upstreams[host] = u
	}

	ms := float64(rtt.Milliseconds())
	if ms < 0 {
		ms = 0
	}

	if u.EWMAms == 0 {
		u.EWMAms = ms
	} else {
		u.EWMAms = (t.alpha * ms) + ((1.0 - t.alpha) * u.EWMAms)
	}

	u.LastRTT = rtt
	u.LastAt = now
	if ok {
		u.OK++
	} else {
		u.Error++
	}
}

func (t *Tracker) Get(host string) (UpstreamLatency, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	u := t.upstreams[host]
	if u == nil {
		return UpstreamLatency{}, false
	}
	return *u, true
}

func (t *Tracker) Snapshot() map[string]UpstreamLatency {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]UpstreamLatency, len(t.upstreams))
	for k, v := range t.upstreams {
		out[k] = *v
	}
	return out
}
