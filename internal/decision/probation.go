package decision

import (
	"sync"
	"time"

	"github.com/user/wifipilot/internal/model"
)

// DefaultProbationDuration is how long a penalized access point stays excluded.
const DefaultProbationDuration = 5 * time.Minute

// Clock abstracts the wall clock so expiry can be driven by tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

type probationEntry struct {
	bssid  string // as given to Add
	expiry time.Time
}

// ProbationStore is a temporary blacklist of access points. Entries expire
// lazily: an expired entry is removed by the next lookup, never by a timer.
type ProbationStore struct {
	mu       sync.Mutex
	clock    Clock
	duration time.Duration
	entries  map[string]probationEntry
}

// NewProbationStore creates a store. A nil clock means SystemClock and a
// non-positive duration means DefaultProbationDuration.
func NewProbationStore(clock Clock, duration time.Duration) *ProbationStore {
	if clock == nil {
		clock = SystemClock{}
	}
	if duration <= 0 {
		duration = DefaultProbationDuration
	}
	return &ProbationStore{
		clock:    clock,
		duration: duration,
		entries:  make(map[string]probationEntry),
	}
}

// Duration returns the configured probation length.
func (p *ProbationStore) Duration() time.Duration {
	return p.duration
}

// Add puts bssid on probation, overwriting any existing entry, and returns
// the new expiry.
func (p *ProbationStore) Add(bssid string) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	expiry := p.clock.Now().Add(p.duration)
	p.entries[NormalizeBSSID(bssid)] = probationEntry{bssid: bssid, expiry: expiry}
	return expiry
}

// IsUnderProbation reports whether bssid is still excluded. An expired entry
// is deleted and reported as absent.
func (p *ProbationStore) IsUnderProbation(bssid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := NormalizeBSSID(bssid)
	e, ok := p.entries[key]
	if !ok {
		return false
	}
	if p.clock.Now().Before(e.expiry) {
		return true
	}
	delete(p.entries, key)
	return false
}

// ListActive returns a snapshot of the store keyed by the BSSID as it was
// added. Listing never purges, so entries that expired but were not looked
// up since are still included.
func (p *ProbationStore) ListActive() map[string]time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]time.Time, len(p.entries))
	for _, e := range p.entries {
		out[e.bssid] = e.expiry
	}
	return out
}

// Remove takes bssid off probation early. It reports whether an entry existed.
func (p *ProbationStore) Remove(bssid string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := NormalizeBSSID(bssid)
	if _, ok := p.entries[key]; !ok {
		return false
	}
	delete(p.entries, key)
	return true
}

// Restore replaces the store contents with persisted entries. Entries that
// have already expired are skipped.
func (p *ProbationStore) Restore(entries []model.ProbationEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	p.entries = make(map[string]probationEntry, len(entries))
	for _, e := range entries {
		if !now.Before(e.Expiry) {
			continue
		}
		p.entries[NormalizeBSSID(e.BSSID)] = probationEntry{bssid: e.BSSID, expiry: e.Expiry}
	}
}

// Len returns the number of stored entries, expired or not.
func (p *ProbationStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
