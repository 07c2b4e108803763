package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "linktracker"

// Fragment labels for FragmentMerges.
const (
	FragmentGeo    = "geo"
	FragmentClient = "client"
)

// Merge results for FragmentMerges.
const (
	MergeApplied  = "applied"
	MergeNotFound = "not_found"
	MergeError    = "error"
)

// Outcome labels for GeoLookups.
const (
	GeoSkipped   = "skipped"   // address not public, no lookup made
	GeoCacheHit  = "cache_hit" // served from cache
	GeoResolved  = "resolved"  // provider returned data
	GeoEmpty     = "empty"     // provider had no data
	GeoFailed    = "failed"    // transport or decode error, or timeout
	GeoThrottled = "throttled" // dropped by the outbound rate limit
	GeoDropped   = "dropped"   // dispatcher closed
)

// Domain collectors. Labels are fixed enums to keep cardinality bounded.
var (
	// LinksCreated counts successfully issued tracking links.
	LinksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Total number of tracking links created.",
		},
	)

	// ClicksRegistered counts visits recorded against existing links.
	ClicksRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_registered_total",
			Help:      "Total number of clicks registered.",
		},
	)

	// FragmentMerges counts asynchronous merges by fragment and result.
	FragmentMerges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragment_merges_total",
			Help:      "Asynchronous click fragment merges by fragment and result.",
		},
		[]string{"fragment", "result"},
	)

	// GeoLookups counts geolocation attempts by outcome.
	GeoLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_lookups_total",
			Help:      "Geolocation lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// GeoLatency records provider round-trip time, cache hits included.
	GeoLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geo_lookup_duration_seconds",
			Help:      "Duration of geolocation lookups in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(LinksCreated, ClicksRegistered, FragmentMerges, GeoLookups, GeoLatency)
}
