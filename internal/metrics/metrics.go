package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	polls           *prometheus.CounterVec
	pollErrors      *prometheus.CounterVec
	refreshSkipped  *prometheus.CounterVec
	sessionRetries  prometheus.Counter
	apiRequests     *prometheus.CounterVec
	matchPhase      prometheus.Gauge
	analysisSeconds *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_polls_total",
			Help: "Match phase polls by resulting phase.",
		}, []string{"phase"}),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_poll_errors_total",
			Help: "Polls that collapsed to no match because of an error, by error kind.",
		}, []string{"kind"}),
		refreshSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_refresh_skipped_total",
			Help: "Ticks and manual refreshes that did not poll, by reason.",
		}, []string{"reason"}),
		sessionRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "companion_session_retries_total",
			Help: "Authenticated calls retried after a credential refresh.",
		}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_api_requests_total",
			Help: "Remote HTTP calls by outcome.",
		}, []string{"kind"}),
		matchPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "companion_match_phase",
			Help: "Current match phase (0 none, 1 pregame, 2 live).",
		}),
		analysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "companion_analysis_duration_seconds",
			Help:    "Wall time of on-demand analytics runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"detector"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.polls, m.pollErrors, m.refreshSkipped, m.sessionRetries,
		m.apiRequests, m.matchPhase, m.analysisSeconds,
	)

	return m
}

// The recorders below accept a nil receiver so components can run without metrics.

func (m *Metrics) Poll(phase string, phaseValue int) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(phase).Inc()
	m.matchPhase.Set(float64(phaseValue))
}

func (m *Metrics) PollError(kind string) {
	if m == nil {
		return
	}
	m.pollErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RefreshSkipped(reason string) {
	if m == nil {
		return
	}
	m.refreshSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) SessionRetry() {
	if m == nil {
		return
	}
	m.sessionRetries.Inc()
}

func (m *Metrics) APIRequest(kind string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveAnalysis(detector string, started time.Time) {
	if m == nil {
		return
	}
	m.analysisSeconds.WithLabelValues(detector).Observe(time.Since(started).Seconds())
}
