package cache

import (
	"runtime/debug"
	"time"

	"github.com/adaptivecache/adaptivecache/pkg/errors"
)

const (
	// maintenanceBackoff is how long the loop pauses after a failed
	// iteration before trying again.
	maintenanceBackoff = 30 * time.Second

	// stopTimeout bounds how long StopMaintenance waits for the loop to
	// exit before proceeding with shutdown anyway.
	stopTimeout = 5 * time.Second

	// reclaimThreshold is the occupancy fraction above which an iteration
	// hints the runtime to return freed memory to the OS.
	reclaimThreshold = 0.9
)

// StartMaintenance launches the background maintenance loop: periodic TTL
// purging, memory-reclaim hints under pressure, and stats refresh. It
// returns an error if the loop is already running.
func (m *Manager[V]) StartMaintenance() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maintenanceStop != nil {
		return errors.NewError(errors.ErrCodeAlreadyStarted, "maintenance already running").
			WithComponent("cache").WithOperation("start_maintenance")
	}

	m.maintenanceStop = make(chan struct{})
	m.maintenanceDone = make(chan struct{})
	go m.maintenanceLoop(m.maintenanceStop, m.maintenanceDone)

	m.logger.Info().Dur("interval", m.cfg.MaintenanceInterval).Msg("cache maintenance started")
	return nil
}

// StopMaintenance signals the loop to exit and waits up to stopTimeout for
// it to finish. If the loop does not stop in time, shutdown proceeds
// regardless; there is no forced cancellation.
func (m *Manager[V]) StopMaintenance() {
	m.mu.Lock()
	stop := m.maintenanceStop
	done := m.maintenanceDone
	m.maintenanceStop = nil
	m.maintenanceDone = nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)

	select {
	case <-done:
		m.logger.Info().Msg("cache maintenance stopped")
	case <-time.After(stopTimeout):
		m.logger.Warn().Msg("cache maintenance did not stop in time, proceeding with shutdown")
	}
}

func (m *Manager[V]) maintenanceLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := m.runMaintenanceOnce(); err != nil {
				m.logger.Error().Err(err).Msg("maintenance iteration failed, backing off")
				select {
				case <-stop:
					return
				case <-time.After(maintenanceBackoff):
				}
			}
		}
	}
}

// runMaintenanceOnce executes one iteration, converting panics into errors
// so a bad iteration never kills the loop.
func (m *Manager[V]) runMaintenanceOnce() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewError(errors.ErrCodeMaintenance, "maintenance iteration panicked").
				WithDetail("panic", r)
		}
	}()

	purged := m.purgeExpired()
	if purged > 0 {
		m.logger.Debug().Int("purged", purged).Msg("expired entries purged")
	}

	m.mu.Lock()
	overPressure := float64(m.totalSize) > reclaimThreshold*float64(m.cfg.MaxSizeBytes)
	m.metrics.SetUsage(m.totalSize, len(m.entries))
	m.mu.Unlock()

	if overPressure {
		m.logger.Info().Msg("cache above reclaim threshold, hinting memory release")
		debug.FreeOSMemory()
	}

	return nil
}

// purgeExpired removes all TTL-expired entries and returns how many were
// purged.
func (m *Manager[V]) purgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var expired []string
	for key, entry := range m.entries {
		if entry.Expired(now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		m.removeEntryLocked(key)
	}
	if len(expired) > 0 {
		m.metrics.SetUsage(m.totalSize, len(m.entries))
	}
	return len(expired)
}
