package types

import (
	"time"
)

// EvictionPolicy decides which entry to sacrifice when capacity is exceeded.
//
// The manager calls Victim while holding its mutex; implementations must not
// call back into the manager. Victim returns false when no eviction is
// required (the incoming entry fits) or when no victim can be found.
type EvictionPolicy interface {
	// Victim selects the key to evict so that an entry of incomingSize can
	// be inserted without exceeding maxSize. totalSize is the current sum of
	// SizeBytes over entries.
	Victim(entries map[string]*Entry, incomingSize, totalSize, maxSize int64) (string, bool)

	// Touch records an access to key, updating recency bookkeeping.
	Touch(key string)

	// Remove discards bookkeeping for a key that left the cache.
	Remove(key string)

	// Reset discards all bookkeeping.
	Reset()
}

// Compressor converts payload bytes to and from a compressed form.
//
// Compress returns the compressed bytes and the size ratio
// (compressed/original). Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, float64, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// MetricsRecorder receives cache events for observability backends.
//
// All methods are called on hot paths under the manager's mutex and must be
// cheap and non-blocking.
type MetricsRecorder interface {
	RecordHit()
	RecordMiss()
	RecordEviction()
	RecordPreload(success bool)
	ObserveGetLatency(d time.Duration)
	SetUsage(sizeBytes int64, entries int)
}

// NopMetrics is a MetricsRecorder that discards all events.
type NopMetrics struct{}

func (NopMetrics) RecordHit()                        {}
func (NopMetrics) RecordMiss()                       {}
func (NopMetrics) RecordEviction()                   {}
func (NopMetrics) RecordPreload(bool)                {}
func (NopMetrics) ObserveGetLatency(time.Duration)   {}
func (NopMetrics) SetUsage(sizeBytes int64, num int) {}
