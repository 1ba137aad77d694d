package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protv_submissions_total",
			Help: "Application submissions by result",
		},
		[]string{"result"},
	)

	UploadOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protv_upload_outcomes_total",
			Help: "File slot upload outcomes",
		},
		[]string{"slot", "outcome"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protv_submission_duration_seconds",
			Help:    "Time spent processing one submission",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protv_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "path", "status"},
	)
)

const (
	ResultSubmitted = "submitted"
	ResultReplayed  = "replayed"
	ResultBadInput  = "bad_input"
	ResultFailed    = "failed"
)
