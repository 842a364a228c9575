package middleware

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v3"
	"time"
)

// MetricsMiddleware labels by route pattern so user ids in paths do not explode cardinality.
func MetricsMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		path := ctx.Route().Path
		status := ctx.Response().StatusCode()
		metrics.GetOrCreateCounter(fmt.Sprintf(`http_requests_total{path=%q, method=%q, status="%d"}`, path, ctx.Method(), status)).Inc()
		metrics.GetOrCreateHistogram(fmt.Sprintf(`http_requests_latency{path=%q, method=%q, status="%d"}`, path, ctx.Method(), status)).UpdateDuration(start)
		return err
	}
}

func MetricsHandler(ctx fiber.Ctx) error {
	ctx.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	metrics.WritePrometheus(ctx.Response().BodyWriter(), true)
	return nil
}
