// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route pattern, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foodgram",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// AssociationChangesTotal counts favorite, cart and subscription changes.
	AssociationChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "association_changes_total",
			Help:      "Total number of favorite, shopping cart and subscription changes",
		},
		[]string{"kind", "action", "outcome"},
	)

	RecipeWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "recipe_writes_total",
			Help:      "Total number of recipe create, update and delete operations",
		},
		[]string{"action", "outcome"},
	)

	ShoppingListDownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "shopping_list_downloads_total",
			Help:      "Total number of shopping list downloads",
		},
	)

	// ShortLinkResolutionsTotal counts /s/{token} lookups.
	ShortLinkResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "short_link_resolutions_total",
			Help:      "Total number of short link lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RecordAssociation records a favorite/cart/subscription change. outcome is
// "ok" or the error class.
func RecordAssociation(kind, action, outcome string) {
	AssociationChangesTotal.WithLabelValues(kind, action, outcome).Inc()
}

func RecordRecipeWrite(action, outcome string) {
	RecipeWritesTotal.WithLabelValues(action, outcome).Inc()
}

func RecordShortLinkResolution(found bool) {
	outcome := "found"
	if !found {
		outcome = "missing"
	}
	ShortLinkResolutionsTotal.WithLabelValues(outcome).Inc()
}
