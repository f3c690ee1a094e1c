package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainsale_submissions_total",
			Help: "Contact submissions by outcome",
		},
		[]string{"outcome"}, // accepted|invalid|challenge_failed|error
	)

	ProviderAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainsale_provider_attempts_total",
			Help: "Email provider attempts by provider, message kind and result",
		},
		[]string{"provider", "kind", "result"}, // sent|failed
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domainsale_provider_latency_seconds",
			Help:    "Email provider call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	ChallengeVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainsale_challenge_verifications_total",
			Help: "Bot-challenge verification outcomes",
		},
		[]string{"result"}, // passed|failed|bypassed|unconfigured
	)
)

var registerOnce sync.Once

// MustRegister registers every collector once per process; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			SubmissionsTotal,
			ProviderAttemptsTotal,
			ProviderLatency,
			ChallengeVerificationsTotal,
		)
	})
}
