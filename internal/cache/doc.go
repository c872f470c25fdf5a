/*
Package cache implements the adaptive cache manager: a bounded in-memory
cache with cost-aware LRU eviction, threshold-based compression, TTL expiry,
predictive preloading, and a supervised maintenance loop.

# Architecture

One Manager orchestrates four collaborating pieces behind a single mutex:

	┌─────────────────────────────────────────────┐
	│              Application                    │
	│       Get / Put / Remove / Stats            │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│               Manager[V]                    │  ← This Package
	│   entry map + compressed buffer store       │
	└─────────────────────────────────────────────┘
	     │           │            │          │
	┌─────────┐ ┌──────────┐ ┌─────────┐ ┌────────────┐
	│Eviction │ │Compressor│ │Preloader│ │Maintenance │
	│LRU+cost │ │zstd/lz4  │ │patterns │ │ticker loop │
	└─────────┘ └──────────┘ └─────────┘ └────────────┘

Values are serialized through a codec at the API boundary, so the store holds
only bytes. Payloads above the configured threshold are compressed and kept
in a separate buffer map keyed alongside their metadata entry.

# Eviction

LRUWithCost keeps a recency list and evicts from the least recently used end
whenever an insert would exceed the byte or entry-count budget. A
cost-weighted score takes over only when the recency list has nothing usable.

# Preloading

The Preloader learns per-minute access histograms and short trailing-key
sequences. PreloadPredicted turns its predictions into background load jobs
executed by a small worker pool with rate limiting and duplicate-load
suppression; the calling goroutine never waits on a loader.

# Maintenance

StartMaintenance runs a ticker loop that purges expired entries, refreshes
usage metrics, and hints the runtime to release memory when occupancy is
high. Iterations recover from panics and back off after failures, so one bad
pass never kills the loop.
*/
package cache
