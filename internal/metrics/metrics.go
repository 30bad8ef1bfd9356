package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "snip",
		Name:      "messages_sent_total",
		Help:      "Direct messages appended to a room.",
	})
	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "snip",
		Name:      "groups_created_total",
		Help:      "Groups created.",
	})
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "snip",
		Name:      "auth_failures_total",
		Help:      "Rejected sign-in and sign-up attempts by reason.",
	}, []string{"code"})
	Subscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "snip",
		Name:      "active_subscriptions",
		Help:      "Open change feeds by kind.",
	}, []string{"kind"})
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "snip",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
