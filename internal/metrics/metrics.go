// Package metrics records request and authorization outcomes with
// Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authorization outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Token cache lookup results.
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

// Recorder holds the client's collectors.
type Recorder struct {
	// requestsCount counts dispatched requests by method and status code.
	requestsCount *prometheus.CounterVec

	// requestDuration observes request latency by method.
	requestDuration *prometheus.HistogramVec

	// requestsInflight gauges the requests currently in flight.
	requestsInflight prometheus.Gauge

	// authorizeCount counts calls to the authorize endpoint by outcome.
	authorizeCount *prometheus.CounterVec

	// tokenLookups counts token cache lookups by result.
	tokenLookups *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
// A nil registerer yields working but unregistered collectors.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		requestsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_client_requests_total",
			Help: "Total number of API requests by method and status code",
		}, []string{"method", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billing_client_request_duration_seconds",
			Help:    "Time to complete an API request (in seconds)",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		requestsInflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "billing_client_requests_inflight",
			Help: "The number of API requests currently in flight",
		}),

		authorizeCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_client_authorize_total",
			Help: "Total number of token acquisitions by outcome",
		}, []string{"outcome"}),

		tokenLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_client_token_lookups_total",
			Help: "Total number of token cache lookups by result",
		}, []string{"result"}),
	}
}

// RequestStarted marks a request in flight and returns a func that records
// its outcome. A status of 0 means no response was received.
func (r *Recorder) RequestStarted(method string) func(status int) {
	if r == nil {
		return func(int) {}
	}

	start := time.Now()

	r.requestsInflight.Inc()

	return func(status int) {
		r.requestsInflight.Dec()
		r.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		r.requestsCount.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
}

// Authorized records one authorize attempt.
func (r *Recorder) Authorized(err error) {
	if r == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}

	r.authorizeCount.WithLabelValues(outcome).Inc()
}

// TokenLookup records whether a cached token was usable.
func (r *Recorder) TokenLookup(hit bool) {
	if r == nil {
		return
	}

	result := LookupMiss
	if hit {
		result = LookupHit
	}

	r.tokenLookups.WithLabelValues(result).Inc()
}

// RequestsCount exposes the request counter for inspection.
func (r *Recorder) RequestsCount() *prometheus.CounterVec {
	return r.requestsCount
}

// AuthorizeCount exposes the authorize counter for inspection.
func (r *Recorder) AuthorizeCount() *prometheus.CounterVec {
	return r.authorizeCount
}

// TokenLookups exposes the token lookup counter for inspection.
func (r *Recorder) TokenLookups() *prometheus.CounterVec {
	return r.tokenLookups
}

// RequestsInflight exposes the in-flight gauge for inspection.
func (r *Recorder) RequestsInflight() prometheus.Gauge {
	return r.requestsInflight
}
