package containers

import (
	"context"
	"errors"
	"testing"
	"time"

	"billed/internal/store"
	"billed/internal/store/memory"
)

func TestPageLoadTransitions(t *testing.T) {
	lister := &fakeLister{bills: memory.Fixtures()}
	bills := NewBills(Options{Store: lister, Session: employeeSession(t)})
	nav := NewNavigation(10, time.Minute)
	seq := nav.Begin("a@a")

	p := NewPage(bills, nav, "a@a", seq)
	if p.State() != Loading || !p.Data().Loading || p.Data().Nav != seq {
		t.Fatalf("new page must be loading: %v %+v", p.State(), p.Data())
	}

	data, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.State() != Loaded || len(data.Data) != 4 || data.Loading {
		t.Fatalf("unexpected loaded page: %v %+v", p.State(), data)
	}

	// Settled pages never fetch again.
	if _, err := p.Load(context.Background()); err != nil || lister.calls != 1 {
		t.Fatalf("second Load fetched again: calls=%d err=%v", lister.calls, err)
	}
}

func TestPageLoadError(t *testing.T) {
	bills := NewBills(Options{Store: &fakeLister{err: store.NewStatusError(500)}, Session: employeeSession(t)})
	p := NewPage(bills, nil, "a@a", 0)

	data, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.State() != Errored || data.Error != "Erreur 500" {
		t.Fatalf("state=%v data=%+v", p.State(), data)
	}
}

func TestPageIgnoresStaleNavigation(t *testing.T) {
	nav := NewNavigation(10, time.Minute)
	lister := &fakeLister{bills: memory.Fixtures()}
	bills := NewBills(Options{Store: lister, Session: employeeSession(t)})

	first := nav.Begin("a@a")
	// The user navigates again while the first fetch is in flight.
	lister.during = func() { nav.Begin("a@a") }

	p := NewPage(bills, nav, "a@a", first)
	if _, err := p.Load(context.Background()); !errors.Is(err, ErrStaleNavigation) {
		t.Fatalf("expected ErrStaleNavigation, got %v", err)
	}
	if p.State() != Loading {
		t.Fatalf("stale result must not settle the page, state=%v", p.State())
	}

	lister.during = nil
	cur, _ := nav.Current("a@a")
	latest := NewPage(bills, nav, "a@a", cur)
	if _, err := latest.Load(context.Background()); err != nil || latest.State() != Loaded {
		t.Fatalf("latest navigation must load: %v %v", err, latest.State())
	}
}

func TestNavigationIsPerUser(t *testing.T) {
	nav := NewNavigation(10, time.Minute)
	if nav.Begin("a@a") != 1 || nav.Begin("a@a") != 2 || nav.Begin("b@b") != 1 {
		t.Fatal("sequences must be per user and increasing")
	}
	if cur, ok := nav.Current("c@c"); ok || cur != 0 || nav.Size() != 2 {
		t.Fatalf("current=%d ok=%v size=%d", cur, ok, nav.Size())
	}
}

func TestPageLoadsAfterOwnerEvicted(t *testing.T) {
	nav := NewNavigation(1, time.Hour)
	lister := &fakeLister{bills: memory.Fixtures()}
	bills := NewBills(Options{Store: lister, Session: employeeSession(t)})

	seq := nav.Begin("a@a")
	nav.Begin("b@b")
	if _, ok := nav.Current("a@a"); ok {
		t.Fatal("a@a should have been evicted")
	}

	p := NewPage(bills, nav, "a@a", seq)
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load after eviction: %v", err)
	}
	if p.State() != Loaded {
		t.Fatalf("state = %v, want loaded", p.State())
	}
}
