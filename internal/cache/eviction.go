package cache

import (
	"container/list"
	"time"

	"github.com/adaptivecache/adaptivecache/pkg/types"
)

// DefaultCostWeight scales the caller-supplied regeneration cost in the
// cost-weighted fallback score.
const DefaultCostWeight = 1.0

// LRUWithCost is the built-in eviction policy: least-recently-used ordering
// with a cost-weighted fallback.
//
// The recency list holds the most recently used key at the front, so
// eviction scans from the back, like a classic LRU. The cost-weighted branch
// only runs when the recency list is empty; in normal operation nearly every
// access lands in the list, so recency dominates and Cost/Priority are
// effectively telemetry. That behavior is deliberate and pinned by tests.
//
// Not safe for concurrent use; the manager serializes all calls under its
// mutex.
type LRUWithCost struct {
	maxEntries int
	costWeight float64

	recency  *list.List
	elements map[string]*list.Element

	now func() time.Time
}

// NewLRUWithCost creates the policy. maxEntries <= 0 means no entry-count
// budget; only the byte budget applies.
func NewLRUWithCost(maxEntries int, costWeight float64) *LRUWithCost {
	if costWeight <= 0 {
		costWeight = DefaultCostWeight
	}
	return &LRUWithCost{
		maxEntries: maxEntries,
		costWeight: costWeight,
		recency:    list.New(),
		elements:   make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Victim selects the key to evict so that an entry of incomingSize fits
// within both the byte and entry-count budgets. It returns false when no
// eviction is required or no candidate exists.
func (p *LRUWithCost) Victim(entries map[string]*types.Entry, incomingSize, totalSize, maxSize int64) (string, bool) {
	withinSize := totalSize+incomingSize <= maxSize
	withinCount := p.maxEntries <= 0 || len(entries) < p.maxEntries
	if withinSize && withinCount {
		return "", false
	}

	// Scan from the least recently used end, skipping stale bookkeeping for
	// keys that already left the entry map.
	for elem := p.recency.Back(); elem != nil; {
		prev := elem.Prev()
		key := elem.Value.(string)
		if _, ok := entries[key]; ok {
			return key, true
		}
		p.recency.Remove(elem)
		delete(p.elements, key)
		elem = prev
	}

	return p.costVictim(entries)
}

// costVictim is the fallback when the recency list holds nothing usable:
// score each entry by staleness over frequency plus weighted cost, and evict
// the minimum.
func (p *LRUWithCost) costVictim(entries map[string]*types.Entry) (string, bool) {
	var (
		victim string
		best   float64
		found  bool
	)

	now := p.now()
	for key, entry := range entries {
		hoursIdle := now.Sub(entry.LastAccessed).Hours()
		score := hoursIdle/(float64(entry.AccessCount)+0.1) + entry.Cost*p.costWeight
		if !found || score < best {
			victim = key
			best = score
			found = true
		}
	}

	return victim, found
}

// Touch moves the accessed key to the most recently used position,
// inserting it if unknown.
func (p *LRUWithCost) Touch(key string) {
	if elem, ok := p.elements[key]; ok {
		p.recency.MoveToFront(elem)
		return
	}
	p.elements[key] = p.recency.PushFront(key)
}

// Remove discards bookkeeping for a key that left the cache.
func (p *LRUWithCost) Remove(key string) {
	if elem, ok := p.elements[key]; ok {
		p.recency.Remove(elem)
		delete(p.elements, key)
	}
}

// Reset discards all bookkeeping.
func (p *LRUWithCost) Reset() {
	p.recency.Init()
	p.elements = make(map[string]*list.Element)
}

var _ types.EvictionPolicy = (*LRUWithCost)(nil)
