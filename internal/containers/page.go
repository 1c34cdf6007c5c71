package containers

import (
	"context"
	"errors"
	"sync"
	"time"

	"billed/internal/cache"
	"billed/internal/views"
)

// ErrStaleNavigation is returned when a newer navigation superseded the load.
var ErrStaleNavigation = errors.New("stale navigation")

type PageState int

const (
	Loading PageState = iota
	Loaded
	Errored
)

func (s PageState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "error"
	}
	return "unknown"
}

// Navigation numbers the visits of each user to the bills page so that
// only the latest visit applies its fetch result.
type Navigation struct {
	mu   sync.Mutex
	last *cache.LRUCache[uint64]
}

func NewNavigation(maxUsers int, ttl time.Duration) *Navigation {
	return &Navigation{last: cache.NewLRUCache[uint64](maxUsers, ttl)}
}

// Begin starts a new navigation for owner and returns its sequence number.
func (n *Navigation) Begin(owner string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	seq, _ := n.last.Get(owner)
	seq++
	n.last.Set(owner, seq)
	return seq
}

// Current returns the latest navigation of owner. ok is false when owner was
// never seen or its entry was evicted or expired.
func (n *Navigation) Current(owner string) (seq uint64, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last.Get(owner)
}

// Size reports how many users are tracked.
func (n *Navigation) Size() int {
	return n.last.Size()
}

// Cache exposes the sequence cache for cleanup registration.
func (n *Navigation) Cache() *cache.LRUCache[uint64] {
	return n.last
}

// Page drives one visit of the bills page: Loading, then Loaded or Errored.
type Page struct {
	bills *Bills
	nav   *Navigation
	owner string
	seq   uint64

	mu    sync.Mutex
	state PageState
	data  views.BillsData
}

// NewPage creates the page of navigation seq. A zero seq or nil nav
// disables the staleness check.
func NewPage(bills *Bills, nav *Navigation, owner string, seq uint64) *Page {
	return &Page{
		bills: bills,
		nav:   nav,
		owner: owner,
		seq:   seq,
		state: Loading,
		data:  views.BillsData{Loading: true, Nav: seq},
	}
}

func (p *Page) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Data returns what the page shows in its current state.
func (p *Page) Data() views.BillsData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

// Load fetches the bills once. Later calls return the settled data without
// fetching again. If a newer navigation began while fetching, the result is
// dropped, the page stays Loading and ErrStaleNavigation is returned.
func (p *Page) Load(ctx context.Context) (views.BillsData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Loading {
		return p.data, nil
	}

	if p.stale() {
		return p.data, ErrStaleNavigation
	}
	bills, err := p.bills.GetBills(ctx)
	if p.stale() {
		return p.data, ErrStaleNavigation
	}

	if err != nil {
		p.state = Errored
		p.data = views.BillsData{Error: err.Error(), Nav: p.seq}
		return p.data, nil
	}
	p.state = Loaded
	p.data = views.BillsData{Data: bills, Nav: p.seq}
	return p.data, nil
}

// stale reports whether a newer navigation of the owner is recorded. A
// forgotten owner has no newer navigation, so its load still applies.
func (p *Page) stale() bool {
	if p.nav == nil || p.seq == 0 {
		return false
	}
	cur, ok := p.nav.Current(p.owner)
	return ok && cur != p.seq
}
