/*
Package config provides configuration loading and validation for the cache
manager.

Configuration is layered: built-in defaults, then an optional YAML file, then
ADAPTIVECACHE_-prefixed environment variables, highest priority last. The
merged result is validated against declared constraints before use.

Example YAML:

	cache:
	  max_size_mb: 256
	  max_entries: 10000
	compression:
	  enabled: true
	  algorithm: zstd
	  level: 3
	  threshold_bytes: 1024
	preload:
	  enabled: true
	  workers: 2
	maintenance:
	  interval: 60s
	metrics:
	  enabled: true
	  port: 9090
	  path: /metrics

Environment overrides map underscores to the first key separator:
ADAPTIVECACHE_CACHE_MAX_SIZE_MB=256 sets cache.max_size_mb.
*/
package config
