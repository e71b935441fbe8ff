// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	ReviewSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_submissions_total",
		Help:      "Review submissions by result code.",
	}, []string{"result"})

	ReviewDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_deletions_total",
		Help:      "Review deletions by result code.",
	}, []string{"result"})

	FeedSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "review_feed_subscriptions",
		Help:      "Live review feed subscriptions.",
	})

	PurchaseOverlays = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_overlays_total",
		Help:      "Purchase overlay episodes by outcome (shown, navigated, cancelled).",
	}, []string{"outcome"})

	WebsocketSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_sessions",
		Help:      "Open websocket view sessions.",
	})
)

// Handler exposes the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
