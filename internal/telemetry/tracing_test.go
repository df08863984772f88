package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	previous := otel.GetTracerProvider()
	exp := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(trace.NewTracerProvider(trace.WithSyncer(exp)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	return exp
}

func TestSpanHelpers(t *testing.T) {
	exp := setupTracerProvider(t)

	ctx, span := StartSpan(context.Background(), "PaymentRepository.Adjudicate")
	AddSpanAttributes(span, attribute.String("payment.id", "pay-1"))
	AddSpanEvent(span, "conflict", attribute.String("status", "APPROVED"))
	RecordSpanError(span, errors.New("payment already adjudicated"))

	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Error("expected trace and span ids in context")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "PaymentRepository.Adjudicate" {
		t.Errorf("unexpected span name %q", got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if len(got.Events) != 2 {
		t.Errorf("expected custom event plus exception event, got %d", len(got.Events))
	}
	if len(got.Attributes) != 1 || got.Attributes[0].Value.AsString() != "pay-1" {
		t.Errorf("unexpected attributes %v", got.Attributes)
	}
}

func TestSetSpanSuccess(t *testing.T) {
	exp := setupTracerProvider(t)

	_, span := StartSpan(context.Background(), "ok")
	SetSpanSuccess(span)
	span.End()

	if exp.GetSpans()[0].Status.Code != codes.Ok {
		t.Errorf("expected Ok status")
	}
}

func TestHelpersTolerateNil(t *testing.T) {
	AddSpanAttributes(nil, attribute.Bool("x", true))
	AddSpanEvent(nil, "x")
	RecordSpanError(nil, errors.New("x"))
	SetSpanSuccess(nil)

	if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
		t.Error("expected empty ids without a span")
	}
}
