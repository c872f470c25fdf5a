package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/adaptivecache/adaptivecache/pkg/types"
)

// preloadQueueDepth bounds the pending preload queue; submissions beyond it
// are dropped rather than blocking the caller.
const preloadQueueDepth = 256

type preloadJob[V any] struct {
	key    string
	loader Loader[V]
}

// preloadState carries the worker pool plumbing shared by the preload path.
type preloadState struct {
	limiter *rate.Limiter
	group   singleflight.Group
}

// PreloadPredicted asks the preloader for keys likely to follow currentKey
// and schedules background loads for those not already cached. Loaded values
// are inserted with priority 1 and the "preloaded" tag; loader failures are
// logged and skipped. The call itself never blocks on loader execution.
func (m *Manager[V]) PreloadPredicted(currentKey string, loader Loader[V], maxPreloads int) {
	if !m.cfg.PreloadEnabled || loader == nil || maxPreloads <= 0 {
		return
	}

	m.mu.Lock()
	predicted := m.preloader.Predict(currentKey, maxPreloads)
	pending := predicted[:0]
	for _, key := range predicted {
		if _, cached := m.entries[key]; !cached {
			pending = append(pending, key)
		}
	}
	m.mu.Unlock()

	for _, key := range pending {
		select {
		case m.preloadJobs <- preloadJob[V]{key: key, loader: loader}:
		default:
			// Queue full: drop the job rather than stall the caller.
			m.logger.Debug().Str("key", key).Msg("preload queue full, prediction dropped")
		}
	}
}

func (m *Manager[V]) startPreloadWorkers() {
	m.preloadJobs = make(chan preloadJob[V], preloadQueueDepth)
	if m.cfg.PreloadRate > 0 {
		m.preload.limiter = rate.NewLimiter(rate.Limit(m.cfg.PreloadRate), 1)
	}

	for i := 0; i < m.cfg.PreloadWorkers; i++ {
		m.preloadWG.Add(1)
		go m.preloadWorker()
	}
}

// preloadWorker drains the job queue until it is closed. Loader execution
// runs outside the manager mutex; only the final insert takes the lock.
func (m *Manager[V]) preloadWorker() {
	defer m.preloadWG.Done()

	for job := range m.preloadJobs {
		if m.preload.limiter != nil {
			if err := m.preload.limiter.Wait(context.Background()); err != nil {
				continue
			}
		}

		// Concurrent predictions for the same key collapse into one load.
		result, err, _ := m.preload.group.Do(job.key, func() (any, error) {
			return job.loader(job.key)
		})
		if err != nil {
			m.metrics.RecordPreload(false)
			m.logger.Warn().Err(err).Str("key", job.key).Msg("preload loader failed, key skipped")
			continue
		}

		value, ok := result.(V)
		if !ok {
			m.metrics.RecordPreload(false)
			m.logger.Warn().Str("key", job.key).Msg("preload loader returned unexpected type, key skipped")
			continue
		}

		m.mu.Lock()
		_, cached := m.entries[job.key]
		m.mu.Unlock()
		if cached {
			continue
		}

		stored, perr := m.Put(job.key, value, Options{
			Priority: types.PriorityMin,
			Tags:     []string{types.PreloadedTag},
		})
		if perr != nil {
			m.metrics.RecordPreload(false)
			m.logger.Warn().Err(perr).Str("key", job.key).Msg("preloaded value rejected by cache")
			continue
		}
		if stored {
			m.metrics.RecordPreload(true)
			m.logger.Debug().Str("key", job.key).Msg("predicted entry preloaded")
		}
	}
}
