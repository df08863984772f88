package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestInitializeMetrics(t *testing.T) {
	metrics, _ := newTestMetrics(t)

	if metrics.commandsTotal == nil || metrics.commandDuration == nil {
		t.Error("command instruments are nil")
	}
	if metrics.bookingsCreated == nil || metrics.bookingTransitions == nil || metrics.paymentsAdjudicated == nil {
		t.Error("business instruments are nil")
	}
}

func TestRecordCommand(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordCommand(ctx, "create_booking", "", 0.2)
	metrics.RecordCommand(ctx, "create_booking", "product_unavailable", 0.1)
	metrics.RecordCommand(ctx, "adjudicate_payment", "", 0.3)

	got := collect(t, reader)

	sum, ok := got["rental_commands_total"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("Expected Sum[int64] data type for rental_commands_total")
	}
	if len(sum.DataPoints) != 3 {
		t.Errorf("Expected 3 data points, got %d", len(sum.DataPoints))
	}

	histogram, ok := got["rental_command_duration_seconds"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("Expected Histogram[float64] data type for rental_command_duration_seconds")
	}
	if len(histogram.DataPoints) != 2 {
		t.Errorf("Expected 2 data points (one per command), got %d", len(histogram.DataPoints))
	}
}

func TestRecordBusinessCounters(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordBookingCreated(ctx, "prod-1")
	metrics.RecordBookingCreated(ctx, "prod-1")
	metrics.RecordBookingTransition(ctx, "PENDING", "CONFIRMED")
	metrics.RecordPaymentAdjudicated(ctx, "APPROVED")
	metrics.RecordPaymentAdjudicated(ctx, "REJECTED")

	got := collect(t, reader)

	created := got["bookings_created_total"].Data.(metricdata.Sum[int64])
	if len(created.DataPoints) != 1 || created.DataPoints[0].Value != 2 {
		t.Errorf("expected one series with value 2, got %+v", created.DataPoints)
	}

	transitions := got["booking_transitions_total"].Data.(metricdata.Sum[int64])
	if len(transitions.DataPoints) != 1 {
		t.Errorf("expected 1 transition series, got %d", len(transitions.DataPoints))
	}

	adjudicated := got["payments_adjudicated_total"].Data.(metricdata.Sum[int64])
	if len(adjudicated.DataPoints) != 2 {
		t.Errorf("expected 2 decision series, got %d", len(adjudicated.DataPoints))
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	m.RecordCommand(context.Background(), "x", "", 1)
	m.RecordBookingCreated(context.Background(), "p")
}
