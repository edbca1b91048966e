package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for billing-level observability.
type BusinessMetrics struct {
	// Invoicing
	InvoicesCreated     *prometheus.CounterVec
	InvoiceCreateFailed *prometheus.CounterVec
	InvoiceValue        prometheus.Histogram

	// Billing cycle jobs
	MonthlyInvoicesGenerated prometheus.Counter
	MonthlyGenerationErrors  prometheus.Counter
	OverdueInvoicesDetected  prometheus.Counter
	VehiclesBlocked          prometheus.Counter

	// Reconciliation sweep
	ReconcileAttached prometheus.Counter
	ReconcileRetried  prometheus.Counter
	ReconcileFlagged  prometheus.Counter

	// Gateway calls
	GatewayErrors *prometheus.CounterVec

	// Notifications
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// NewBusinessMetrics creates and registers all billing metrics.
// Tests pass their own prometheus.NewRegistry() to avoid collisions.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "voltrack"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	subsystem := "billing"
	factory := promauto.With(reg)

	return &BusinessMetrics{
		InvoicesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_created_total",
				Help:      "Total invoices created with an attached gateway payment",
			},
			[]string{"origin"}, // manual, monthly
		),
		InvoiceCreateFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_create_failed_total",
				Help:      "Total invoice creations aborted before completion",
			},
			[]string{"reason"}, // validation, gateway, storage
		),
		InvoiceValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_value",
				Help:      "Invoice amounts in BRL",
				Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
		MonthlyInvoicesGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "monthly_invoices_generated_total",
				Help:      "Invoices produced by the monthly generation job",
			},
		),
		MonthlyGenerationErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "monthly_generation_errors_total",
				Help:      "Per-client failures during monthly generation",
			},
		),
		OverdueInvoicesDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "overdue_invoices_detected_total",
				Help:      "Invoices found past their grace deadline",
			},
		),
		VehiclesBlocked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "vehicles_blocked_total",
				Help:      "Vehicles transitioned active to blocked by the overdue job",
			},
		),
		ReconcileAttached: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_attached_total",
				Help:      "Pending-remote invoices resolved by attaching an existing gateway payment",
			},
		),
		ReconcileRetried: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_retried_total",
				Help:      "Pending-remote invoices resolved by retrying payment creation",
			},
		),
		ReconcileFlagged: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reconcile_flagged_total",
				Help:      "Pending-remote invoices past the alert threshold awaiting manual reconciliation",
			},
		),
		GatewayErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_errors_total",
				Help:      "Failed payment gateway calls",
			},
			[]string{"operation"},
		),
		NotificationsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_sent_total",
				Help:      "WhatsApp notifications delivered",
			},
		),
		NotificationsFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_failed_total",
				Help:      "WhatsApp notifications that exhausted the retry budget",
			},
		),
	}
}
