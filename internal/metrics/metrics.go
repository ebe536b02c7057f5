// Package metrics records fetch, merge and persistence events with Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the remote client and the pager report to.
type Recorder interface {
	RecordFetch(scheme, outcome string, latency time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordDeduped(count int)
	RecordPersisted(count int)
	RecordPersistFailure()
	RecordStaleResponse()
}

// Fetch outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport"
	OutcomeDecode    = "decode"
)

type Collector struct {
	fetches        *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	httpStatus     *prometheus.CounterVec
	deduped        prometheus.Counter
	persisted      prometheus.Counter
	persistFailure prometheus.Counter
	stale          prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "headlines_fetch_total",
			Help: "Remote searches by partition scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "headlines_fetch_latency_seconds",
			Help:    "Latency of remote searches.",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "headlines_http_status_total",
			Help: "Responses from the headlines API by status code.",
		}, []string{"status_code"}),
		deduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "headlines_articles_deduped_total",
			Help: "Fetched articles dropped because their url was already stored.",
		}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "headlines_articles_persisted_total",
			Help: "Articles written to the local store.",
		}),
		persistFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "headlines_persist_failures_total",
			Help: "Failed store writes after a merge.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "headlines_stale_responses_total",
			Help: "Responses discarded because their query was superseded.",
		}),
	}

	reg.MustRegister(
		c.fetches,
		c.fetchLatency,
		c.httpStatus,
		c.deduped,
		c.persisted,
		c.persistFailure,
		c.stale,
	)

	return c
}

func (c *Collector) RecordFetch(scheme, outcome string, latency time.Duration) {
	c.fetches.WithLabelValues(scheme, outcome).Inc()
	c.fetchLatency.Observe(latency.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordDeduped(count int) {
	c.deduped.Add(float64(count))
}

func (c *Collector) RecordPersisted(count int) {
	c.persisted.Add(float64(count))
}

func (c *Collector) RecordPersistFailure() {
	c.persistFailure.Inc()
}

func (c *Collector) RecordStaleResponse() {
	c.stale.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordFetch(string, string, time.Duration) {}
func (Noop) RecordHTTPStatus(int)                      {}
func (Noop) RecordDeduped(int)                         {}
func (Noop) RecordPersisted(int)                       {}
func (Noop) RecordPersistFailure()                     {}
func (Noop) RecordStaleResponse()                      {}
