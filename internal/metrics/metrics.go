package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubscribeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_subscribe_attempts_total",
			Help: "Subscribe attempts by outcome",
		},
		[]string{"outcome"}, // subscribed|missing_email|invalid_email|duplicate|rate_limited|backend_error
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		SubscribeAttempts,
	)
}
