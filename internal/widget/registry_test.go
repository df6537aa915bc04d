package widget

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestRegistry(maxIdle time.Duration) *Registry {
	f := newFakeFetcher()
	return NewRegistry(func() *Controller { return newTestController(f, nil) }, maxIdle)
}

func TestRegistryGetCreatesAndReuses(t *testing.T) {
	r := newTestRegistry(time.Hour)

	id, first, created := r.Get("")
	if !created {
		t.Fatal("expected a new widget for an empty id")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("widget id is not a uuid: %q", id)
	}

	sameID, again, created := r.Get(id)
	if created || sameID != id || again != first {
		t.Fatal("known id must return the same widget")
	}

	otherID, other, created := r.Get("not-a-uuid")
	if !created || otherID == id || other == first {
		t.Fatal("malformed id must get a fresh widget")
	}

	unknownID, _, created := r.Get(uuid.NewString())
	if !created || unknownID == id {
		t.Fatal("unknown id must get a fresh widget under a new id")
	}

	if r.Len() != 3 {
		t.Fatalf("expected 3 widgets, got %d", r.Len())
	}
}

func TestRegistryWidgetsAreIndependent(t *testing.T) {
	r := newTestRegistry(time.Hour)
	_, a, _ := r.Get("")
	_, b, _ := r.Get("")

	a.Fetch(context.Background(), "Jakarta")
	if b.City() != DefaultCity {
		t.Fatalf("widgets share state: %q", b.City())
	}
}

func TestRegistryPrune(t *testing.T) {
	r := newTestRegistry(10 * time.Minute)
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	oldID, _, _ := r.Get("")
	now = now.Add(8 * time.Minute)
	freshID, _, _ := r.Get("")
	now = now.Add(5 * time.Minute)

	if removed := r.Prune(); removed != 1 {
		t.Fatalf("expected one eviction, got %d", removed)
	}

	seen := map[string]bool{}
	r.Each(func(id string, _ *Controller) { seen[id] = true })
	if seen[oldID] || !seen[freshID] {
		t.Fatalf("unexpected survivors: %v", seen)
	}
}

func TestRegistryPruneDisabled(t *testing.T) {
	r := newTestRegistry(0)
	now := time.Now()
	r.now = func() time.Time { return now }
	r.Get("")
	now = now.Add(24 * time.Hour)

	if removed := r.Prune(); removed != 0 || r.Len() != 1 {
		t.Fatalf("pruning should be disabled, removed %d", removed)
	}
}
