package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	commandsTotal       metric.Int64Counter
	commandDuration     metric.Float64Histogram
	bookingsCreated     metric.Int64Counter
	bookingTransitions  metric.Int64Counter
	paymentsAdjudicated metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.commandsTotal, err = meter.Int64Counter(
		"rental_commands_total",
		metric.WithDescription("Total number of rental commands handled"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rental_commands_total counter: %w", err)
	}

	m.commandDuration, err = meter.Float64Histogram(
		"rental_command_duration_seconds",
		metric.WithDescription("Duration of rental command handling"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rental_command_duration histogram: %w", err)
	}

	m.bookingsCreated, err = meter.Int64Counter(
		"bookings_created_total",
		metric.WithDescription("Total number of bookings created"),
		metric.WithUnit("{booking}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create bookings_created_total counter: %w", err)
	}

	m.bookingTransitions, err = meter.Int64Counter(
		"booking_transitions_total",
		metric.WithDescription("Booking status transitions applied"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create booking_transitions_total counter: %w", err)
	}

	m.paymentsAdjudicated, err = meter.Int64Counter(
		"payments_adjudicated_total",
		metric.WithDescription("Payment proofs approved or rejected"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payments_adjudicated_total counter: %w", err)
	}

	return m, nil
}

// NewNoopMetrics returns instruments that discard every measurement.
func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordCommand counts one handled command. kind is the domain error kind,
// empty on success.
func (m *Metrics) RecordCommand(ctx context.Context, command, kind string, durationSeconds float64) {
	status := "success"
	if kind != "" {
		status = "error"
	}
	m.commandsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
		attribute.String("error_kind", kind),
	))
	m.commandDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("command", command),
	))
}

func (m *Metrics) RecordBookingCreated(ctx context.Context, productID string) {
	m.bookingsCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("product_id", productID),
	))
}

func (m *Metrics) RecordBookingTransition(ctx context.Context, from, to string) {
	m.bookingTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordPaymentAdjudicated(ctx context.Context, decision string) {
	m.paymentsAdjudicated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
	))
}
