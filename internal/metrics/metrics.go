// Package metrics exposes session counters. A nil *Recorder is valid and
// records nothing.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "extrachill_client"

// Refresh outcomes
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshReused  = "reused"
)

// Request outcomes
const (
	RequestOK             = "ok"
	RequestRetried        = "retried"
	RequestSessionMissing = "session_missing"
	RequestSessionExpired = "session_expired"
	RequestFailed         = "failed"
)

// Recorder holds the session counters
type Recorder struct {
	refreshes    *prometheus.CounterVec
	authFailures prometheus.Counter
	requests     *prometheus.CounterVec
}

// New creates a recorder and registers it on reg
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Sessions dropped after an unrecoverable auth failure.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authenticated_requests_total",
			Help:      "Authenticated requests by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{r.refreshes, r.authFailures, r.requests} {
			if err := reg.Register(c); err != nil {
				return nil, errors.Wrap(err, "failed to register metrics")
			}
		}
	}

	return r, nil
}

// Refresh counts a refresh with the given result
func (r *Recorder) Refresh(result string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(result).Inc()
}

// AuthFailure counts an auth-failure episode
func (r *Recorder) AuthFailure() {
	if r == nil {
		return
	}
	r.authFailures.Inc()
}

// Request counts an authenticated request outcome
func (r *Recorder) Request(outcome string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(outcome).Inc()
}
