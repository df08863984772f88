package notify

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	publishDuration  metric.Float64Histogram
	connectedClients metric.Int64UpDownCounter
	droppedClients   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.publishDuration, err = meter.Float64Histogram(
		"notify_publish_duration_seconds",
		metric.WithDescription("Time to hand an event to the websocket hub"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create notify_publish_duration histogram: %w", err)
	}

	m.connectedClients, err = meter.Int64UpDownCounter(
		"notify_connected_clients",
		metric.WithDescription("Websocket clients currently subscribed"),
		metric.WithUnit("{client}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create notify_connected_clients counter: %w", err)
	}

	m.droppedClients, err = meter.Int64Counter(
		"notify_dropped_clients_total",
		metric.WithDescription("Clients disconnected because they could not keep up"),
		metric.WithUnit("{client}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create notify_dropped_clients_total counter: %w", err)
	}

	return m, nil
}

func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *Metrics) RecordPublish(ctx context.Context, eventType string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.publishDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	))
}

func (m *Metrics) clientConnected(ctx context.Context, admin bool) {
	m.connectedClients.Add(ctx, 1, metric.WithAttributes(attribute.Bool("admin", admin)))
}

func (m *Metrics) clientDisconnected(ctx context.Context, admin bool, dropped bool) {
	m.connectedClients.Add(ctx, -1, metric.WithAttributes(attribute.Bool("admin", admin)))
	if dropped {
		m.droppedClients.Add(ctx, 1)
	}
}
