/*
Package metrics provides Prometheus-based observability for the cache
manager.

The Collector implements types.MetricsRecorder and registers its collectors
with a private registry, so multiple cache instances in one process do not
collide. It can optionally serve the registry over HTTP:

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled: true,
		Port:    9090,
		Path:    "/metrics",
	})
	if err != nil {
		return err
	}
	_ = collector.Start()
	defer collector.Stop(ctx)

Exposed series (namespace adaptivecache by default):

	adaptivecache_accesses_total{result="hit|miss"}
	adaptivecache_evictions_total
	adaptivecache_preloads_total{outcome="success|failure"}
	adaptivecache_get_duration_seconds
	adaptivecache_size_bytes
	adaptivecache_entries
*/
package metrics
