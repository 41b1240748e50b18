package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the storefront REST backend.",
	}, []string{"method", "status"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "catalog_cache_lookups_total",
		Help:      "Catalog cache reads by collection and result.",
	}, []string{"collection", "result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Name:      "active_sessions",
		Help:      "UI sessions currently held in memory.",
	})

	UnauthorizedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "unauthorized_responses_total",
		Help:      "Backend 401 responses handled by the gateway.",
	})
)
