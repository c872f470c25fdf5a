/*
Package types provides the core data model and contracts for the adaptive
cache manager.

This package is the foundation of the module: it defines the per-entry
bookkeeping structure, the aggregate statistics views, and the interfaces the
cache manager composes at construction time.

# Architecture Overview

The cache manager is assembled from small, substitutable pieces:

	┌─────────────────────────────────────────────┐
	│                Callers                      │
	│   (orchestration layer, loader callbacks)   │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│             Cache Manager                   │
	│          (internal/cache)                   │
	└─────────────────────────────────────────────┘
	     │            │            │         │
	┌────┴─────┐ ┌────┴─────┐ ┌────┴────┐ ┌──┴─────┐
	│ Eviction │ │Compressor│ │Preloader│ │Metrics │
	│  Policy  │ │          │ │         │ │        │
	└──────────┘ └──────────┘ └─────────┘ └────────┘

# Core Contracts

EvictionPolicy:
Selects the entry to remove when the configured size or entry budget would be
exceeded. The built-in implementation is LRU with a cost-weighted fallback.

Compressor:
Converts payloads to and from a compressed byte form, reporting the size
ratio achieved. Strategies form a closed set selected at construction
(zstd, lz4, identity).

MetricsRecorder:
Receives hit/miss/eviction/preload events and usage gauges. A Prometheus
implementation lives in internal/metrics; NopMetrics is the default.

# Data Structures

Entry holds one cached item's metadata. Its payload lives either inline
(Value, serialized bytes) or out-of-band in the manager's compressed buffer
store, never both. StatsSnapshot and ExportedState are point-in-time views
produced under the manager's mutex.

# Interface Contracts

All interfaces here follow these principles:

 1. Explicit errors following Go conventions where failure is possible
 2. Safe for concurrent use unless documented otherwise
 3. No calls back into the cache manager from hook implementations
*/
package types
