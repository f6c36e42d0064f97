package metrics

import "github.com/prometheus/client_golang/prometheus"

// Order workflow operation names.
const (
	OpPlaceOrder    = "place_order"
	OpUpdateStatus  = "update_status"
	OpVerifyPayment = "verify_payment"
)

// WorkflowMetrics counts order workflow outcomes, labelled by operation and
// the error code returned ("ok" on success).
type WorkflowMetrics struct {
	operations *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow counter on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_operations_total",
		Help:      "Order workflow operations by outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(operations)
	return &WorkflowMetrics{operations: operations}
}

// Record counts one operation with its outcome.
func (m *WorkflowMetrics) Record(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.operations.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}
