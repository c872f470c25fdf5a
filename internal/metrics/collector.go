package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adaptivecache/adaptivecache/pkg/types"
)

// Collector implements types.MetricsRecorder on top of Prometheus.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	accessCounter  *prometheus.CounterVec
	evictionTotal  prometheus.Counter
	preloadCounter *prometheus.CounterVec
	getDuration    prometheus.Histogram
	sizeGauge      prometheus.Gauge
	entryGauge     prometheus.Gauge

	// HTTP server for the metrics endpoint
	server *http.Server
}

// Config represents metrics configuration.
type Config struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
}

// NewCollector creates a new metrics collector with a private registry.
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Port:      9090,
			Path:      "/metrics",
			Namespace: "adaptivecache",
		}
	}
	if config.Namespace == "" {
		config.Namespace = "adaptivecache"
	}

	if !config.Enabled {
		return &Collector{config: config}, nil
	}

	c := &Collector{
		config:   config,
		registry: prometheus.NewRegistry(),
	}

	c.accessCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "accesses_total",
		Help:      "Cache accesses partitioned by result.",
	}, []string{"result"})

	c.evictionTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "evictions_total",
		Help:      "Entries evicted to respect the capacity budgets.",
	})

	c.preloadCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "preloads_total",
		Help:      "Predictive preload attempts partitioned by outcome.",
	}, []string{"outcome"})

	c.getDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "get_duration_seconds",
		Help:      "Latency of cache get operations.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	})

	c.sizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "size_bytes",
		Help:      "Current occupied cache size in bytes.",
	})

	c.entryGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "entries",
		Help:      "Current number of live cache entries.",
	})

	for _, collector := range []prometheus.Collector{
		c.accessCounter, c.evictionTotal, c.preloadCounter,
		c.getDuration, c.sizeGauge, c.entryGauge,
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return c, nil
}

// RecordHit counts a cache hit.
func (c *Collector) RecordHit() {
	if !c.config.Enabled {
		return
	}
	c.accessCounter.With(prometheus.Labels{"result": "hit"}).Inc()
}

// RecordMiss counts a cache miss.
func (c *Collector) RecordMiss() {
	if !c.config.Enabled {
		return
	}
	c.accessCounter.With(prometheus.Labels{"result": "miss"}).Inc()
}

// RecordEviction counts an evicted entry.
func (c *Collector) RecordEviction() {
	if !c.config.Enabled {
		return
	}
	c.evictionTotal.Inc()
}

// RecordPreload counts a predictive preload attempt.
func (c *Collector) RecordPreload(success bool) {
	if !c.config.Enabled {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.preloadCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// ObserveGetLatency records the duration of a get operation.
func (c *Collector) ObserveGetLatency(d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.getDuration.Observe(d.Seconds())
}

// SetUsage updates the occupancy gauges.
func (c *Collector) SetUsage(sizeBytes int64, entries int) {
	if !c.config.Enabled {
		return
	}
	c.sizeGauge.Set(float64(sizeBytes))
	c.entryGauge.Set(float64(entries))
}

// Start serves the metrics endpoint in the background.
func (c *Collector) Start() error {
	if !c.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.Path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", c.healthHandler)

	c.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop shuts down the metrics endpoint.
func (c *Collector) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

func (c *Collector) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

var _ types.MetricsRecorder = (*Collector)(nil)
