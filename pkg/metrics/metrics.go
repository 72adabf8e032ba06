package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "smartagrinet", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "smartagrinet", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "smartagrinet", Name: "emails_sent_total", Help: "Number of email deliveries by template and outcome."},
		[]string{"template", "outcome"},
	)
	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "smartagrinet", Name: "ws_connections", Help: "Currently connected websocket clients."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(EmailsSent)
	reg.MustRegister(WSConnections)
}
