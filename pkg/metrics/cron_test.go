package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsObserveByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	metrics.now = func() time.Time { return time.Unix(1700000000, 0) }

	metrics.Observe("outbox_retention", 250*time.Millisecond, nil)
	metrics.Observe("outbox_retention", 100*time.Millisecond, errors.New("db gone"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "rugstore_cron_job_runs_total", "result", "success"); err != nil || got != 1 {
		t.Fatalf("expected success=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "rugstore_cron_job_runs_total", "result", "failure"); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "rugstore_cron_job_duration_seconds", "job", "outbox_retention"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got < 0.34 {
		t.Fatalf("expected both runs in duration sum, got %f", got)
	}

	mf := findMetricFamily(mfs, "rugstore_cron_job_last_success_timestamp_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected one last-success gauge")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1700000000 {
		t.Fatalf("unexpected last success %f", got)
	}
}

func TestCronJobMetricsWithoutRegistererIsNoop(t *testing.T) {
	metrics := NewCronJobMetrics(nil)
	metrics.Observe("anything", time.Second, nil)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("GET", "/api/products", 200, 40*time.Millisecond)
	metrics.Observe("GET", "/api/products", 200, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "rugstore_http_requests_total", "route", "/api/products"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "rugstore_http_request_duration_seconds", "status", "200"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestWorkflowMetricsRecordDefaultsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)
	metrics.Record(OpPlaceOrder, "")
	metrics.Record(OpPlaceOrder, "INSUFFICIENT_STOCK")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "rugstore_order_operations_total", "outcome", "ok"); err != nil {
		t.Fatalf("fetch ok: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "rugstore_order_operations_total", "outcome", "INSUFFICIENT_STOCK"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("GET", "/", 200, time.Millisecond)
	var workflow *WorkflowMetrics
	workflow.Record(OpUpdateStatus, "")
	NewHTTPMetrics(nil).Observe("GET", "/", 500, time.Millisecond)
}

func TestEmptyLabelsReportAsUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCronJobMetrics(reg).Observe("", time.Millisecond, nil)
	NewHTTPMetrics(reg).Observe("GET", "", 404, time.Millisecond)
	NewWorkflowMetrics(reg).Record("", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	checks := map[string]string{
		"rugstore_cron_job_runs_total":    "job",
		"rugstore_http_requests_total":    "route",
		"rugstore_order_operations_total": "operation",
	}
	for name, label := range checks {
		if got, err := fetchCounterValue(mfs, name, label, "unknown"); err != nil || got != 1 {
			t.Fatalf("%s: expected %s=unknown once, got %f err=%v", name, label, got, err)
		}
	}
}
