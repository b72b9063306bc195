package monitoring

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RegistrationsTotal counts provisioning attempts by final status.
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymstack_registrations_total",
			Help: "Total number of gym registration attempts by status",
		},
		[]string{"status"},
	)

	// ProvisioningDuration observes the wall time of full tenant provisioning.
	ProvisioningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gymstack_provisioning_duration_seconds",
			Help:    "Duration of tenant provisioning in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PaymentVerifications counts verification outcomes by gateway and result.
	PaymentVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymstack_payment_verifications_total",
			Help: "Total number of payment verification attempts by gateway and result",
		},
		[]string{"gateway", "result"},
	)

	// OrdersCreated counts gateway orders created by gateway name.
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymstack_orders_created_total",
			Help: "Total number of payment orders created by gateway",
		},
		[]string{"gateway"},
	)
)

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	collectors := []prometheus.Collector{
		RegistrationsTotal,
		ProvisioningDuration,
		PaymentVerifications,
		OrdersCreated,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			slog.Error("Failed to register metric", "error", err)
		}
	}
	slog.Info("Metrics registered", "count", len(collectors))
}
