package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuditsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audits_dispatched_total",
			Help: "Audits handed to the crawler service, by outcome.",
		},
		[]string{"outcome"}, // dispatched, failed, skipped
	)

	KeywordLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keyword_lookups_total",
			Help: "Keyword rank lookups, by outcome.",
		},
		[]string{"outcome"}, // ok, failed
	)

	PdfJobTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_job_transitions_total",
			Help: "PDF generation job status transitions.",
		},
		[]string{"status"},
	)

	AIGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_generations_total",
			Help: "AI content generations, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)
