package types

import (
	"time"
)

// Entry represents a single cached item and its bookkeeping metadata.
//
// Exactly one of two places holds the payload: Value carries the serialized
// bytes when the entry is stored inline (uncompressed), and is nil when the
// payload lives in the manager's compressed buffer store.
type Entry struct {
	Key              string        `json:"key"`
	Value            []byte        `json:"value,omitempty"`
	SizeBytes        int64         `json:"size_bytes"`
	CreatedAt        time.Time     `json:"created_at"`
	LastAccessed     time.Time     `json:"last_accessed"`
	AccessCount      int64         `json:"access_count"`
	TTL              time.Duration `json:"ttl,omitempty"`
	CompressionRatio float64       `json:"compression_ratio"`
	Cost             float64       `json:"cost"`
	Tags             []string      `json:"tags,omitempty"`
	Priority         int           `json:"priority"`
}

// Compressed reports whether the entry's payload is stored out-of-band in
// compressed form.
func (e *Entry) Compressed() bool {
	return e.Value == nil
}

// Expired reports whether the entry's TTL has elapsed relative to now.
// Entries with no TTL never expire.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > e.TTL
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Priority bounds for cache entries. Priority is advisory weight for
// eviction and grouping in statistics; it does not change LRU ordering.
const (
	PriorityMin = 1
	PriorityMax = 5
)

// PreloadedTag marks entries inserted by the predictive preloader.
const PreloadedTag = "preloaded"

// TopEntry identifies a heavily accessed key in a StatsSnapshot.
type TopEntry struct {
	Key         string `json:"key"`
	AccessCount int64  `json:"access_count"`
}

// StatsSnapshot is the full statistics view returned by Manager.Stats.
//
// HitRate is a percentage in [0,100]. EfficiencyScore is a derived health
// indicator in [0,100] blending hit rate, compression savings, and how close
// utilization sits to its 70% sweet spot.
type StatsSnapshot struct {
	EntryCount         int         `json:"entry_count"`
	SizeBytes          int64       `json:"size_bytes"`
	SizeMB             float64     `json:"size_mb"`
	Hits               uint64      `json:"hits"`
	Misses             uint64      `json:"misses"`
	HitRate            float64     `json:"hit_rate"`
	Evictions          uint64      `json:"evictions"`
	AvgAccessTimeMS    float64     `json:"avg_access_time_ms"`
	CompressionRatio   float64     `json:"compression_ratio"`
	CompressionEnabled bool        `json:"compression_enabled"`
	PreloadingEnabled  bool        `json:"preloading_enabled"`
	EfficiencyScore    float64     `json:"efficiency_score"`
	Utilization        float64     `json:"utilization"`
	TopEntries         []TopEntry  `json:"top_entries"`
	EntriesByPriority  map[int]int `json:"entries_by_priority"`
	ExpiredUnpurged    int         `json:"expired_unpurged"`
}

// ExportedState is the best-effort snapshot produced by Manager.ExportState.
//
// The snapshot is lossy: compressed payload bytes are not
// included, only the keys stored compressed. It is intended for diagnostics
// and warm-start hints, not durable persistence.
type ExportedState struct {
	ExportedAt     time.Time         `json:"exported_at"`
	Entries        map[string]*Entry `json:"entries"`
	CompressedKeys []string          `json:"compressed_keys"`
	Stats          StatsSnapshot     `json:"stats"`
	Config         map[string]any    `json:"config"`
}
