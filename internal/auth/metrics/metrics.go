package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks login outcomes, session terminations and step-up
// challenges. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoginOutcomes      *prometheus.CounterVec
	LoginDuration      prometheus.Histogram
	SessionsTerminated *prometheus.CounterVec
	ChallengesIssued   *prometheus.CounterVec
	ChallengeFailures  prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

// New registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmhub_login_outcomes_total",
			Help: "Login attempts by outcome (a login status, or invalid_credentials)",
		}, []string{"outcome"}),
		LoginDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pharmhub_login_duration_seconds",
			Help:    "Duration of login classification including password hashing",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SessionsTerminated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmhub_sessions_ended_total",
			Help: "Sessions deactivated, by reason",
		}, []string{"reason"}),
		ChallengesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmhub_challenges_issued_total",
			Help: "Step-up challenges issued, by login status",
		}, []string{"status"}),
		ChallengeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pharmhub_challenge_failures_total",
			Help: "Wrong step-up codes submitted",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "pharmhub_active_sessions",
			Help: "Active sessions at the last housekeeping run",
		}),
	}
}

// ObserveLogin records one classified login. Call with time.Now() taken at
// the start of the request.
func (m *Metrics) ObserveLogin(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.LoginOutcomes.WithLabelValues(outcome).Inc()
	m.LoginDuration.Observe(time.Since(start).Seconds())
}

// AddSessionsEnded records n sessions ended for reason.
func (m *Metrics) AddSessionsEnded(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsTerminated.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) IncrementChallengeIssued(status string) {
	if m == nil {
		return
	}
	m.ChallengesIssued.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementChallengeFailure() {
	if m == nil {
		return
	}
	m.ChallengeFailures.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
