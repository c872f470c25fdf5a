package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adaptivecache/adaptivecache/internal/config"
	"github.com/adaptivecache/adaptivecache/pkg/codec"
	"github.com/adaptivecache/adaptivecache/pkg/errors"
	"github.com/adaptivecache/adaptivecache/pkg/types"
)

const (
	// accessWindowSize bounds the rolling window of get latencies backing
	// the avg_access_time_ms statistic.
	accessWindowSize = 1000

	// topEntriesLimit is how many heavy hitters a StatsSnapshot reports.
	topEntriesLimit = 10
)

// Config assembles a Manager. Zero values fall back to the documented
// defaults.
type Config struct {
	MaxSizeBytes int64
	MaxEntries   int

	CompressionEnabled   bool
	CompressionAlgorithm string
	CompressionLevel     int
	CompressionThreshold int64

	PreloadEnabled bool
	PreloadWorkers int
	// PreloadRate caps loader invocations per second; 0 means unlimited.
	PreloadRate float64

	MaintenanceInterval time.Duration

	Codec   codec.Codec
	Policy  types.EvictionPolicy
	Metrics types.MetricsRecorder
	Logger  *zerolog.Logger
}

// FromAppConfig maps the application configuration onto a manager Config.
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		MaxSizeBytes:         cfg.Cache.MaxSizeBytes(),
		MaxEntries:           cfg.Cache.MaxEntries,
		CompressionEnabled:   cfg.Compression.Enabled,
		CompressionAlgorithm: cfg.Compression.Algorithm,
		CompressionLevel:     cfg.Compression.Level,
		CompressionThreshold: cfg.Compression.ThresholdBytes,
		PreloadEnabled:       cfg.Preload.Enabled,
		PreloadWorkers:       cfg.Preload.Workers,
		PreloadRate:          cfg.Preload.LoadsPerSecond,
		MaintenanceInterval:  cfg.Maintenance.Interval,
	}
}

// Options carries the per-entry knobs accepted by Put.
type Options struct {
	// TTL is the entry's maximum age; 0 means no expiry.
	TTL time.Duration

	// Tags label the entry for metrics and invalidation-by-tag use cases.
	Tags []string

	// Priority is an advisory eviction weight from 1 (low) to 5 (high);
	// out-of-range values are clamped.
	Priority int

	// Cost estimates how expensive the value is to regenerate.
	Cost float64
}

// Loader produces the value for a predicted key during preloading.
type Loader[V any] func(key string) (V, error)

// Manager is the orchestrating cache: it owns the entry map, the compressed
// buffer store, the eviction policy, the compression strategies, the
// predictive preloader, and the aggregate statistics.
//
// One mutex guards all shared state. The public API is synchronous; callers
// block until the mutex is available. This coarse locking is a deliberate
// simplicity tradeoff: correctness is easy to reason about at the price of
// serialized cache traffic under contention.
type Manager[V any] struct {
	mu sync.Mutex

	cfg        Config
	codec      codec.Codec
	policy     types.EvictionPolicy
	compressor types.Compressor
	preloader  *Preloader
	metrics    types.MetricsRecorder
	logger     zerolog.Logger

	entries    map[string]*types.Entry
	compressed map[string][]byte
	totalSize  int64

	hits      uint64
	misses    uint64
	evictions uint64

	// accessTimes is a rolling window of get latencies in milliseconds.
	accessTimes []float64
	accessNext  int

	// Background maintenance lifecycle.
	maintenanceStop chan struct{}
	maintenanceDone chan struct{}

	// Preload worker pool.
	preload     preloadState
	preloadJobs chan preloadJob[V]
	preloadWG   sync.WaitGroup
	closeOnce   sync.Once

	now func() time.Time
}

// New creates a Manager from cfg, starting the preload worker pool when
// preloading is enabled. Maintenance must be started explicitly with
// StartMaintenance.
func New[V any](cfg Config) (*Manager[V], error) {
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 100 * 1024 * 1024
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	if cfg.CompressionThreshold <= 0 {
		cfg.CompressionThreshold = 1024
	}
	if cfg.CompressionAlgorithm == "" {
		cfg.CompressionAlgorithm = CompressionZstd
	}
	if cfg.PreloadWorkers <= 0 {
		cfg.PreloadWorkers = 2
	}
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = time.Minute
	}

	compressor, err := NewCompressor(cfg.CompressionAlgorithm, cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}

	m := &Manager[V]{
		cfg:        cfg,
		codec:      cfg.Codec,
		policy:     cfg.Policy,
		compressor: compressor,
		preloader:  NewPreloader(),
		metrics:    cfg.Metrics,
		entries:    make(map[string]*types.Entry),
		compressed: make(map[string][]byte),
		now:        time.Now,
	}
	if m.codec == nil {
		m.codec = codec.Default
	}
	if m.policy == nil {
		m.policy = NewLRUWithCost(cfg.MaxEntries, DefaultCostWeight)
	}
	if m.metrics == nil {
		m.metrics = types.NopMetrics{}
	}
	if cfg.Logger != nil {
		m.logger = *cfg.Logger
	} else {
		m.logger = zerolog.Nop()
	}

	if cfg.PreloadEnabled {
		m.startPreloadWorkers()
	}

	return m, nil
}

// Get returns the cached value for key, or def on a miss. Expired entries
// and entries whose stored payload fails to decode are purged and counted as
// misses.
func (m *Manager[V]) Get(key string, def V) V {
	start := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.missLocked()
		return def
	}

	if entry.Expired(m.now()) {
		m.removeEntryLocked(key)
		m.missLocked()
		m.logger.Debug().Str("key", key).Msg("cache entry expired on access")
		return def
	}

	payload := entry.Value
	if entry.Compressed() {
		decoded, err := m.compressor.Decompress(m.compressed[key])
		if err != nil {
			// Self-healing: purge the corrupt entry and report a miss.
			m.removeEntryLocked(key)
			m.missLocked()
			m.logger.Warn().Err(err).Str("key", key).Msg("decompression failed, entry purged")
			return def
		}
		payload = decoded
	}

	var value V
	if err := m.codec.Unmarshal(payload, &value); err != nil {
		m.removeEntryLocked(key)
		m.missLocked()
		m.logger.Warn().Err(err).Str("key", key).Msg("stored payload failed to decode, entry purged")
		return def
	}

	now := m.now()
	entry.LastAccessed = now
	entry.AccessCount++
	m.policy.Touch(key)
	if m.cfg.PreloadEnabled {
		m.preloader.RecordAccess(key, entry.Tags)
	}

	m.hits++
	m.metrics.RecordHit()
	latency := now.Sub(start)
	m.recordAccessTimeLocked(latency)
	m.metrics.ObserveGetLatency(latency)

	return value
}

// Put stores value under key, evicting as needed to respect the size and
// entry budgets. It reports whether the value was stored; a false return
// carries a typed error (capacity or serialization) so callers can decide on
// fallback behavior.
func (m *Manager[V]) Put(key string, value V, opts Options) (bool, error) {
	data, err := m.codec.Marshal(value)
	if err != nil {
		serr := errors.Wrap(errors.ErrCodeSerialization, "cannot serialize value", err).
			WithComponent("cache").WithOperation("put")
		m.logger.Error().Err(err).Str("key", key).Msg("value serialization failed")
		return false, serr
	}

	stored := data
	ratio := 1.0
	compressed := false
	if m.cfg.CompressionEnabled && int64(len(data)) > m.cfg.CompressionThreshold {
		out, r, cerr := m.compressor.Compress(data)
		if cerr != nil {
			// Compression failure is absorbed: fall back to inline storage.
			m.logger.Warn().Err(cerr).Str("key", key).Msg("compression failed, storing uncompressed")
		} else {
			stored = out
			ratio = r
			compressed = true
		}
	}

	size := int64(len(stored))
	if size > m.cfg.MaxSizeBytes {
		cerr := errors.NewError(errors.ErrCodeCapacityExceeded, "entry exceeds cache capacity").
			WithComponent("cache").WithOperation("put").
			WithDetail("size_bytes", size).
			WithDetail("max_size_bytes", m.cfg.MaxSizeBytes)
		m.logger.Warn().Str("key", key).Int64("size_bytes", size).Msg("entry rejected, exceeds capacity")
		return false, cerr
	}

	priority := opts.Priority
	if priority < types.PriorityMin {
		priority = types.PriorityMin
	} else if priority > types.PriorityMax {
		priority = types.PriorityMax
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		m.removeEntryLocked(key)
	}

	// Evict until the policy reports the new entry fits. If the policy
	// cannot name a victim while still over budget, insert anyway: the
	// optimistic-insert boundary case, kept deliberately and pinned by a
	// regression test.
	for {
		victim, ok := m.policy.Victim(m.entries, size, m.totalSize, m.cfg.MaxSizeBytes)
		if !ok {
			break
		}
		m.removeEntryLocked(victim)
		m.evictions++
		m.metrics.RecordEviction()
		m.logger.Debug().Str("victim", victim).Msg("entry evicted")
	}

	now := m.now()
	entry := &types.Entry{
		Key:              key,
		SizeBytes:        size,
		CreatedAt:        now,
		LastAccessed:     now,
		TTL:              opts.TTL,
		CompressionRatio: ratio,
		Cost:             opts.Cost,
		Tags:             opts.Tags,
		Priority:         priority,
	}
	if compressed {
		m.compressed[key] = stored
	} else {
		entry.Value = stored
	}

	m.entries[key] = entry
	m.totalSize += size
	m.policy.Touch(key)
	m.metrics.SetUsage(m.totalSize, len(m.entries))

	return true, nil
}

// Remove deletes key from the cache, reporting whether it was present.
func (m *Manager[V]) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return false
	}
	m.removeEntryLocked(key)
	m.metrics.SetUsage(m.totalSize, len(m.entries))
	return true
}

// Clear destroys all entries and resets statistics and the preloader's
// learned state.
func (m *Manager[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*types.Entry)
	m.compressed = make(map[string][]byte)
	m.totalSize = 0
	m.hits = 0
	m.misses = 0
	m.evictions = 0
	m.accessTimes = nil
	m.accessNext = 0
	m.policy.Reset()
	m.preloader.Reset()
	m.metrics.SetUsage(0, 0)
}

// Stats returns a point-in-time view of the cache's statistics.
func (m *Manager[V]) Stats() types.StatsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked()
}

func (m *Manager[V]) statsLocked() types.StatsSnapshot {
	snap := types.StatsSnapshot{
		EntryCount:         len(m.entries),
		SizeBytes:          m.totalSize,
		SizeMB:             float64(m.totalSize) / (1024 * 1024),
		Hits:               m.hits,
		Misses:             m.misses,
		Evictions:          m.evictions,
		CompressionEnabled: m.cfg.CompressionEnabled,
		PreloadingEnabled:  m.cfg.PreloadEnabled,
		EntriesByPriority:  make(map[int]int),
	}

	if total := m.hits + m.misses; total > 0 {
		snap.HitRate = float64(m.hits) / float64(total) * 100
	}
	if len(m.accessTimes) > 0 {
		sum := 0.0
		for _, ms := range m.accessTimes {
			sum += ms
		}
		snap.AvgAccessTimeMS = sum / float64(len(m.accessTimes))
	}
	if m.cfg.MaxSizeBytes > 0 {
		snap.Utilization = float64(m.totalSize) / float64(m.cfg.MaxSizeBytes)
	}

	now := m.now()
	ratioSum := 0.0
	ratioCount := 0
	top := make([]types.TopEntry, 0, len(m.entries))
	for key, entry := range m.entries {
		if entry.Compressed() {
			ratioSum += entry.CompressionRatio
			ratioCount++
		}
		snap.EntriesByPriority[entry.Priority]++
		if entry.Expired(now) {
			snap.ExpiredUnpurged++
		}
		top = append(top, types.TopEntry{Key: key, AccessCount: entry.AccessCount})
	}

	snap.CompressionRatio = 1.0
	if ratioCount > 0 {
		snap.CompressionRatio = ratioSum / float64(ratioCount)
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].AccessCount != top[j].AccessCount {
			return top[i].AccessCount > top[j].AccessCount
		}
		return top[i].Key < top[j].Key
	})
	if len(top) > topEntriesLimit {
		top = top[:topEntriesLimit]
	}
	snap.TopEntries = top

	snap.EfficiencyScore = efficiencyScore(snap.HitRate/100, snap.CompressionRatio, snap.Utilization)

	return snap
}

// efficiencyScore blends hit rate, compression savings, and how close
// utilization sits to its 70% sweet spot into a 0-100 health indicator.
func efficiencyScore(hitRateFrac, meanRatio, utilization float64) float64 {
	deviation := utilization - 0.7
	if deviation < 0 {
		deviation = -deviation
	}
	score := 100 * (0.5*hitRateFrac + 0.3*(2-meanRatio) + 0.2*(1-deviation))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ExportState produces a best-effort snapshot for diagnostics and warm-start
// hints. The snapshot is lossy: compressed entries contribute only their
// keys, not their payload bytes.
func (m *Manager[V]) ExportState() types.ExportedState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := types.ExportedState{
		ExportedAt:     m.now(),
		Entries:        make(map[string]*types.Entry),
		CompressedKeys: make([]string, 0, len(m.compressed)),
		Stats:          m.statsLocked(),
		Config: map[string]any{
			"max_size_bytes":        m.cfg.MaxSizeBytes,
			"max_entries":           m.cfg.MaxEntries,
			"compression_enabled":   m.cfg.CompressionEnabled,
			"compression_algorithm": m.compressor.Name(),
			"compression_threshold": m.cfg.CompressionThreshold,
			"preload_enabled":       m.cfg.PreloadEnabled,
		},
	}

	for key, entry := range m.entries {
		if entry.Compressed() {
			state.CompressedKeys = append(state.CompressedKeys, key)
			continue
		}
		clone := *entry
		clone.Value = append([]byte(nil), entry.Value...)
		state.Entries[key] = &clone
	}
	sort.Strings(state.CompressedKeys)

	return state
}

// Close stops maintenance if running and drains the preload worker pool.
func (m *Manager[V]) Close() error {
	m.StopMaintenance()
	m.closeOnce.Do(func() {
		if m.preloadJobs != nil {
			close(m.preloadJobs)
		}
	})
	m.preloadWG.Wait()
	return nil
}

// missLocked counts a miss. Callers hold m.mu.
func (m *Manager[V]) missLocked() {
	m.misses++
	m.metrics.RecordMiss()
}

// removeEntryLocked deletes an entry and its compressed buffer, updating the
// size accounting and the policy's bookkeeping. Callers hold m.mu.
func (m *Manager[V]) removeEntryLocked(key string) {
	entry, ok := m.entries[key]
	if !ok {
		return
	}
	m.totalSize -= entry.SizeBytes
	delete(m.entries, key)
	delete(m.compressed, key)
	m.policy.Remove(key)
}

// recordAccessTimeLocked appends a get latency to the rolling window,
// overwriting the oldest sample once the window is full. Callers hold m.mu.
func (m *Manager[V]) recordAccessTimeLocked(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if len(m.accessTimes) < accessWindowSize {
		m.accessTimes = append(m.accessTimes, ms)
		return
	}
	m.accessTimes[m.accessNext] = ms
	m.accessNext = (m.accessNext + 1) % accessWindowSize
}
