package cache

import (
	"testing"
	"time"

	"github.com/adaptivecache/adaptivecache/pkg/types"
)

func testEntry(key string, size int64) *types.Entry {
	now := time.Now()
	return &types.Entry{
		Key:          key,
		SizeBytes:    size,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
		Priority:     types.PriorityMin,
	}
}

// TestVictimNonePending verifies no victim is named while both budgets hold
func TestVictimNonePending(t *testing.T) {
	p := NewLRUWithCost(10, DefaultCostWeight)
	entries := map[string]*types.Entry{
		"a": testEntry("a", 100),
	}
	p.Touch("a")

	victim, ok := p.Victim(entries, 100, 100, 1000)
	if ok {
		t.Errorf("expected no victim within budgets, got %q", victim)
	}
}

// TestVictimLRUOrder verifies the least recently used key is evicted first
func TestVictimLRUOrder(t *testing.T) {
	p := NewLRUWithCost(0, DefaultCostWeight)
	entries := map[string]*types.Entry{
		"a": testEntry("a", 400),
		"b": testEntry("b", 400),
		"c": testEntry("c", 400),
	}
	p.Touch("a")
	p.Touch("b")
	p.Touch("c")

	victim, ok := p.Victim(entries, 400, 1200, 1200)
	if !ok {
		t.Fatal("expected a victim over the byte budget")
	}
	if victim != "a" {
		t.Errorf("expected oldest key a evicted, got %q", victim)
	}

	// Re-touching the oldest key should shift eviction to the next oldest.
	p.Touch("a")
	victim, ok = p.Victim(entries, 400, 1200, 1200)
	if !ok {
		t.Fatal("expected a victim over the byte budget")
	}
	if victim != "b" {
		t.Errorf("expected b evicted after a was touched, got %q", victim)
	}
}

// TestVictimEntryCountBudget verifies eviction triggers on the count budget
// even when the byte budget still has room
func TestVictimEntryCountBudget(t *testing.T) {
	p := NewLRUWithCost(2, DefaultCostWeight)
	entries := map[string]*types.Entry{
		"k1": testEntry("k1", 10),
		"k2": testEntry("k2", 10),
	}
	p.Touch("k1")
	p.Touch("k2")

	victim, ok := p.Victim(entries, 10, 20, 1_000_000)
	if !ok {
		t.Fatal("expected a victim at the entry-count budget")
	}
	if victim != "k1" {
		t.Errorf("expected k1 evicted, got %q", victim)
	}
}

// TestVictimPrunesStaleBookkeeping verifies recency entries for keys no
// longer in the map are skipped and discarded
func TestVictimPrunesStaleBookkeeping(t *testing.T) {
	p := NewLRUWithCost(0, DefaultCostWeight)
	entries := map[string]*types.Entry{
		"live": testEntry("live", 500),
	}
	p.Touch("gone")
	p.Touch("live")

	victim, ok := p.Victim(entries, 500, 500, 500)
	if !ok {
		t.Fatal("expected a victim")
	}
	if victim != "live" {
		t.Errorf("expected live evicted, got %q", victim)
	}
	if _, tracked := p.elements["gone"]; tracked {
		t.Error("stale key should have been pruned from bookkeeping")
	}
}

// TestCostVictimFallback verifies the cost-weighted branch picks the
// minimum-score entry when the recency list is empty
func TestCostVictimFallback(t *testing.T) {
	p := NewLRUWithCost(0, DefaultCostWeight)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return base }

	hot := testEntry("hot", 100)
	hot.LastAccessed = base.Add(-1 * time.Hour)
	hot.AccessCount = 10

	cold := testEntry("cold", 100)
	cold.LastAccessed = base.Add(-10 * time.Hour)
	cold.AccessCount = 1

	entries := map[string]*types.Entry{"hot": hot, "cold": cold}

	victim, ok := p.Victim(entries, 100, 200, 200)
	if !ok {
		t.Fatal("expected a fallback victim")
	}
	if victim != "hot" {
		t.Errorf("expected minimum-score entry hot evicted, got %q", victim)
	}
}

// TestCostVictimCostWeight verifies regeneration cost raises an entry's
// fallback score
func TestCostVictimCostWeight(t *testing.T) {
	p := NewLRUWithCost(0, 1.0)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return base }

	cheap := testEntry("cheap", 100)
	cheap.LastAccessed = base.Add(-time.Hour)
	cheap.AccessCount = 1
	cheap.Cost = 0

	pricey := testEntry("pricey", 100)
	pricey.LastAccessed = base.Add(-time.Hour)
	pricey.AccessCount = 1
	pricey.Cost = 50

	entries := map[string]*types.Entry{"cheap": cheap, "pricey": pricey}

	victim, ok := p.Victim(entries, 100, 200, 200)
	if !ok {
		t.Fatal("expected a fallback victim")
	}
	if victim != "cheap" {
		t.Errorf("expected low-cost entry evicted, got %q", victim)
	}
}

func TestRemoveAndReset(t *testing.T) {
	p := NewLRUWithCost(0, DefaultCostWeight)
	p.Touch("a")
	p.Touch("b")

	p.Remove("a")
	if _, ok := p.elements["a"]; ok {
		t.Error("removed key still tracked")
	}
	if p.recency.Len() != 1 {
		t.Errorf("expected 1 tracked key, got %d", p.recency.Len())
	}

	p.Reset()
	if p.recency.Len() != 0 || len(p.elements) != 0 {
		t.Error("reset left bookkeeping behind")
	}
}
