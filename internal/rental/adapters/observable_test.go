package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/cosrent/internal/database"
	"github.com/dejobratic/cosrent/internal/notify"
	"github.com/dejobratic/cosrent/internal/rental/adapters/memory"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracing(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	previous := otel.GetTracerProvider()
	exp := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	return exp
}

func histogramPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.HistogramDataPoint[float64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data.(metricdata.Histogram[float64]).DataPoints
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestObservableBookingRepositoryRecordsSpansAndQueries(t *testing.T) {
	exp := setupTracing(t)
	reader := sdkmetric.NewManualReader()
	dbMetrics, err := database.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	repo := NewObservableBookingRepository(memory.NewBookingRepository(), dbMetrics)
	ctx := context.Background()
	now := time.Now().UTC()
	booking := domain.Booking{
		ID:               "bk-1",
		CustomerID:       "cust-1",
		ProductID:        "prd-1",
		StartDate:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Days:             2,
		PricePerDayCents: 800,
		TotalCents:       1600,
		Status:           domain.BookingPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := repo.Create(ctx, booking); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "BookingRepository.Create" || spans[0].Status.Code != codes.Ok {
		t.Errorf("unexpected create span %s (%v)", spans[0].Name, spans[0].Status.Code)
	}
	if spans[1].Name != "BookingRepository.GetByID" || spans[1].Status.Code != codes.Error {
		t.Errorf("unexpected get span %s (%v)", spans[1].Name, spans[1].Status.Code)
	}

	points := histogramPoints(t, reader, "db_query_duration_seconds")
	if len(points) != 2 {
		t.Fatalf("expected 2 data points, got %d", len(points))
	}
	for _, dp := range points {
		op, _ := dp.Attributes.Value("operation")
		status, _ := dp.Attributes.Value("status")
		switch op.AsString() {
		case "create_booking":
			if status.AsString() != "success" {
				t.Errorf("expected create_booking success, got %s", status.AsString())
			}
		case "get_booking_by_id":
			if status.AsString() != "error" {
				t.Errorf("expected get_booking_by_id error, got %s", status.AsString())
			}
		default:
			t.Errorf("unexpected operation %s", op.AsString())
		}
	}
}

func TestObservablePaymentRepositoryPassesConflictThrough(t *testing.T) {
	setupTracing(t)
	repo := NewObservablePaymentRepository(memory.NewPaymentRepository(nil), mustNoopDBMetrics(t))
	ctx := context.Background()

	payment, err := repo.Upsert(ctx, domain.Payment{
		ID:          "pay-1",
		BookingID:   "bk-1",
		CustomerID:  "cust-1",
		AmountCents: 1600,
		ProofRef:    "proof-1",
		Status:      domain.PaymentPending,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if _, err := repo.Adjudicate(ctx, payment.ID, domain.PaymentApproved, "admin-1", time.Now().UTC()); err != nil {
		t.Fatalf("first Adjudicate() failed: %v", err)
	}
	if _, err := repo.Adjudicate(ctx, payment.ID, domain.PaymentRejected, "admin-1", time.Now().UTC()); !errors.Is(err, ports.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
}

type failingBus struct{ err error }

func (f failingBus) PublishBookingCreated(context.Context, domain.Booking) error { return f.err }
func (f failingBus) PublishBookingStatusChanged(context.Context, domain.Booking, domain.BookingStatus) error {
	return f.err
}
func (f failingBus) PublishPaymentSubmitted(context.Context, domain.Payment) error   { return f.err }
func (f failingBus) PublishPaymentAdjudicated(context.Context, domain.Payment) error { return f.err }

func TestObservableEventBusRecordsPublishStatus(t *testing.T) {
	exp := setupTracing(t)
	reader := sdkmetric.NewManualReader()
	notifyMetrics, err := notify.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	bus := NewObservableEventBus(failingBus{err: notify.ErrQueueFull}, notifyMetrics)
	err = bus.PublishBookingStatusChanged(context.Background(), domain.Booking{ID: "bk-1", Status: domain.BookingConfirmed}, domain.BookingPending)
	if !errors.Is(err, notify.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "EventBus.PublishBookingStatusChanged" {
		t.Fatalf("unexpected spans %v", spans)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error span status, got %v", spans[0].Status.Code)
	}

	points := histogramPoints(t, reader, "notify_publish_duration_seconds")
	if len(points) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(points))
	}
	eventType, _ := points[0].Attributes.Value("event_type")
	status, _ := points[0].Attributes.Value("status")
	if eventType.AsString() != notify.EventBookingStatusChanged || status.AsString() != "error" {
		t.Errorf("unexpected attributes %v", points[0].Attributes)
	}
}

func mustNoopDBMetrics(t *testing.T) *database.Metrics {
	t.Helper()
	m, err := database.NewMetrics(sdkmetric.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m
}
