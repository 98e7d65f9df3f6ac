// Package metrics records signin outcomes with Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

type Signin struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSignin registers the signin collectors with reg, reusing collectors
// that are already registered.
func NewSignin(reg prometheus.Registerer) *Signin {
	s := &Signin{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "team_sso",
			Name:      "signin_total",
			Help:      "Count of signin attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "team_sso",
			Name:      "signin_duration_seconds",
			Help:      "Latency of provider callbacks",
			Buckets:   durationBuckets,
		}, []string{"provider"}),
	}

	if err := reg.Register(s.total); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				s.total = existing
			}
		}
	}
	if err := reg.Register(s.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				s.duration = existing
			}
		}
	}
	return s
}

// Observe records one callback outcome.
func (s *Signin) Observe(provider, outcome string, d time.Duration) {
	if s == nil {
		return
	}
	s.total.WithLabelValues(provider, outcome).Inc()
	s.duration.WithLabelValues(provider).Observe(d.Seconds())
}
