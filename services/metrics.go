package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// quotesSubmitted counts accepted quote submissions
	quotesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_quotes_submitted_total",
		Help: "Total quotes accepted",
	})

	// quotesApproved counts SUBMITTED to APPROVED transitions
	quotesApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_quotes_approved_total",
		Help: "Total quotes approved",
	})

	// anomaliesDetected counts persisted anomaly records by severity
	anomaliesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_anomalies_detected_total",
		Help: "Total anomaly records by severity",
	}, []string{"severity"})

	// anomalyBaselineMissing counts quotes skipped for lack of a baseline
	anomalyBaselineMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_anomaly_baseline_missing_total",
		Help: "Quotes not evaluated because the item had no baseline price",
	})

	// contentionRetries counts retried writes by operation
	contentionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_contention_retries_total",
		Help: "Writes retried after contention, by operation",
	}, []string{"operation"})

	// explainerFailures counts explanation calls that degraded to no explanation
	explainerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_explainer_failures_total",
		Help: "Anomaly explanation calls that failed, by reason",
	}, []string{"reason"})

	// rankingDuration tracks recommendation ranking latency
	rankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "procurement_ranking_duration_seconds",
		Help:    "Vendor recommendation ranking duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// rankingCandidates tracks candidate vendors per recommendation request
	rankingCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "procurement_ranking_candidates",
		Help:    "Candidate vendors per recommendation request",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
)
