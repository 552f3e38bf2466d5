// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ielts",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Name:      "generation_requests_total",
		Help:      "Calls to the generation model by operation and outcome.",
	}, []string{"operation", "outcome"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ielts",
		Name:      "generation_duration_seconds",
		Help:      "Generation model latency by operation.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
	}, []string{"operation"})

	ExtractionJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Name:      "extraction_jobs_total",
		Help:      "Uploaded file extraction jobs by outcome.",
	}, []string{"outcome"})
)

const (
	OutcomeSuccess  = "success"
	OutcomeFormat   = "format_error"
	OutcomeUpstream = "upstream_error"
	OutcomeError    = "error"
	OutcomeDropped  = "dropped"
)
