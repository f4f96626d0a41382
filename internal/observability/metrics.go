package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Post and user lookups are single-row or one page, so the interesting range
// sits well under a second.
var queryBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}

var (
	// RedisErrorRate counts failed Redis commands issued by the token
	// revocation store, labelled by command name ("pipeline" for batches).
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "revocation",
		Name:      "redis_errors_total",
		Help:      "Redis commands that failed while checking or recording revoked tokens.",
	}, []string{"command"})

	// DatabaseQueryLatency observes repository calls per table and operation.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quill",
		Subsystem: "store",
		Name:      "query_duration_seconds",
		Help:      "Time spent in repository calls against the posts and users tables.",
		Buckets:   queryBuckets,
	}, []string{"table", "operation"})
)

// TrackQuery starts a timer for one repository call. Call the returned func
// once the call has finished, usually via defer.
func TrackQuery(operation, table string) func() {
	observer := DatabaseQueryLatency.WithLabelValues(table, operation)
	timer := prometheus.NewTimer(observer)
	return func() { timer.ObserveDuration() }
}
