package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	adminRequestsTotal   *prometheus.CounterVec
	adminLatencySeconds  *prometheus.HistogramVec
	adminErrorsTotal     *prometheus.CounterVec
	messagesSentTotal    *prometheus.CounterVec
	stageCloseDuration   *prometheus.HistogramVec
	evaluationJobsTotal  *prometheus.CounterVec
	scoreCacheRequests   *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
	otpRequestsTotal     *prometheus.CounterVec
	decisionUpdatesTotal *prometheus.CounterVec
	stagePromotionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		messagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Outbound applicant messages by channel, audience group and outcome.",
		}, []string{"channel", "group", "status"})

		stageCloseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stage_close_duration_seconds",
			Help:    "Wall time of stage-closing runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage", "mode"})

		evaluationJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_jobs_total",
			Help: "AI evaluation jobs by dispatch transport and outcome.",
		}, []string{"transport", "status"})

		scoreCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_cache_requests_total",
			Help: "Score cache lookups by result.",
		}, []string{"result"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_submissions_total",
			Help: "Applicant stage submissions by stage and outcome.",
		}, []string{"stage", "status"})

		otpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_requests_total",
			Help: "One-time code issue and verification attempts.",
		}, []string{"action", "status"})

		decisionUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filtering_decision_updates_total",
			Help: "Filtering decision changes by decision value.",
		}, []string{"decision"})

		stagePromotionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_promotions_total",
			Help: "Submissions promoted to the next stage.",
		}, []string{"from_stage"})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			messagesSentTotal,
			stageCloseDuration,
			evaluationJobsTotal,
			scoreCacheRequests,
			submissionsTotal,
			otpRequestsTotal,
			decisionUpdatesTotal,
			stagePromotionsTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// MessagesSent exposes the outbound message counter.
func MessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesSentTotal
}

// StageCloseDuration exposes the stage-closing latency histogram.
func StageCloseDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return stageCloseDuration
}

// EvaluationJobs exposes the AI evaluation job counter.
func EvaluationJobs() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationJobsTotal
}

// ScoreCacheRequests exposes the score cache hit/miss counter.
func ScoreCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreCacheRequests
}

// StageSubmissions exposes the applicant submission counter.
func StageSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// OTPRequests exposes the OTP counter.
func OTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return otpRequestsTotal
}

// DecisionUpdates exposes the filtering decision counter.
func DecisionUpdates() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionUpdatesTotal
}

// StagePromotions exposes the promotion counter.
func StagePromotions() *prometheus.CounterVec {
	RegisterMetrics()
	return stagePromotionsTotal
}
