// Package metrics exposes the collector's operational counters over
// Prometheus. These are process-level observability only, the durable
// occurrence counters live in the store.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Collector struct {
	reg *prometheus.Registry

	MessagesReceived   prometheus.Counter
	DecodeFailures     prometheus.Counter
	ResolutionFailures prometheus.Counter
	StoreErrors        prometheus.Counter
	EventsStored       *prometheus.CounterVec // table label

	SnapshotDuration prometheus.Histogram
	SnapshotFailures prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,

		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hfplog_messages_received_total",
			Help: "Feed messages received.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hfplog_decode_failures_total",
			Help: "Feed messages dropped because they failed to decode.",
		}),
		ResolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hfplog_resolution_failures_total",
			Help: "Events dropped because no canonical trip could be determined.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hfplog_store_errors_total",
			Help: "Store writes that failed.",
		}),
		EventsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hfplog_events_stored_total",
			Help: "Event rows written, by table.",
		}, []string{"table"}),

		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hfplog_snapshot_duration_seconds",
			Help:    "Time spent writing a store snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hfplog_snapshot_failures_total",
			Help: "Store snapshots that failed.",
		}),
	}

	reg.MustRegister(
		c.MessagesReceived,
		c.DecodeFailures,
		c.ResolutionFailures,
		c.StoreErrors,
		c.EventsStored,
		c.SnapshotDuration,
		c.SnapshotFailures,
	)

	return c
}

// ObserveSnapshot records one snapshot attempt.
func (c *Collector) ObserveSnapshot(duration time.Duration, err error) {
	c.SnapshotDuration.Observe(duration.Seconds())
	if err != nil {
		c.SnapshotFailures.Inc()
	}
}

// Serve exposes /metrics on its own listener. An empty address disables it.
func (c *Collector) Serve(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}
