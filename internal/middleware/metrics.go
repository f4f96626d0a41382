package middleware

import (
	"strconv"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostOperations counts post service outcomes by operation and result.
	PostOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_post_operations_total",
		Help: "Post operations by operation and outcome",
	}, []string{"operation", "outcome"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Fiber Prometheus middleware for the service.
// Collectors live in the default registry, so the first call wins.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware returns the request instrumentation handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

// RecordPostOperation counts one post operation by the HTTP status it produced.
func RecordPostOperation(operation string, status int) {
	PostOperations.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}
