package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/cosrent/internal/notify"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/dejobratic/cosrent/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *notify.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *notify.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) publish(ctx context.Context, spanName, eventType string, attrs []attribute.KeyValue, send func(ctx context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("event.type", eventType))...)

	start := time.Now()
	err := send(ctx)
	e.metrics.RecordPublish(ctx, eventType, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishBookingCreated(ctx context.Context, booking domain.Booking) error {
	return e.publish(ctx, "EventBus.PublishBookingCreated", notify.EventBookingCreated,
		[]attribute.KeyValue{attribute.String("booking.id", booking.ID)},
		func(ctx context.Context) error {
			return e.bus.PublishBookingCreated(ctx, booking)
		})
}

func (e *ObservableEventBus) PublishBookingStatusChanged(ctx context.Context, booking domain.Booking, from domain.BookingStatus) error {
	return e.publish(ctx, "EventBus.PublishBookingStatusChanged", notify.EventBookingStatusChanged,
		[]attribute.KeyValue{
			attribute.String("booking.id", booking.ID),
			attribute.String("booking.from_status", string(from)),
			attribute.String("booking.to_status", string(booking.Status)),
		},
		func(ctx context.Context) error {
			return e.bus.PublishBookingStatusChanged(ctx, booking, from)
		})
}

func (e *ObservableEventBus) PublishPaymentSubmitted(ctx context.Context, payment domain.Payment) error {
	return e.publish(ctx, "EventBus.PublishPaymentSubmitted", notify.EventPaymentSubmitted,
		[]attribute.KeyValue{
			attribute.String("payment.id", payment.ID),
			attribute.String("payment.booking_id", payment.BookingID),
		},
		func(ctx context.Context) error {
			return e.bus.PublishPaymentSubmitted(ctx, payment)
		})
}

func (e *ObservableEventBus) PublishPaymentAdjudicated(ctx context.Context, payment domain.Payment) error {
	return e.publish(ctx, "EventBus.PublishPaymentAdjudicated", notify.EventPaymentAdjudicated,
		[]attribute.KeyValue{
			attribute.String("payment.id", payment.ID),
			attribute.String("payment.status", string(payment.Status)),
		},
		func(ctx context.Context) error {
			return e.bus.PublishPaymentAdjudicated(ctx, payment)
		})
}
