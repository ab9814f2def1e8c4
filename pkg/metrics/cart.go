package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// CartMetrics records cart mutation outcomes and latency.
type CartMetrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	stock      prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "operation_duration_seconds",
		Help:      "Duration of cart operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "operations_total",
		Help:      "Cart operations by outcome.",
	}, []string{"op", "outcome"})
	stock := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "stock_units_decremented_total",
		Help:      "Product stock units consumed by cart clears.",
	})
	reg.MustRegister(duration, operations, stock)
	return &CartMetrics{
		duration:   duration,
		operations: operations,
		stock:      stock,
	}
}

// Observe records one finished operation.
func (c *CartMetrics) Observe(op, outcome string, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	op = normalizeLabel(op)
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	c.operations.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

// AddStockDecrement counts units removed from product stock.
func (c *CartMetrics) AddStockDecrement(units int) {
	if c == nil || c.stock == nil || units <= 0 {
		return
	}
	c.stock.Add(float64(units))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
