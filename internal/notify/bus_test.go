package notify_test

import (
	"context"
	"testing"

	"github.com/dejobratic/cosrent/internal/notify"
	"github.com/dejobratic/cosrent/internal/rental/domain"
)

type capturePublisher struct {
	events []notify.Event
}

func (c *capturePublisher) Publish(_ context.Context, event notify.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestBusBuildsEvents(t *testing.T) {
	pub := &capturePublisher{}
	bus := notify.NewBus(pub)
	ctx := context.Background()

	booking := domain.Booking{ID: "bk-1", CustomerID: "cust-1"}
	payment := domain.Payment{ID: "pay-1", BookingID: "bk-1", CustomerID: "cust-1", Status: domain.PaymentApproved}

	_ = bus.PublishBookingCreated(ctx, booking)
	_ = bus.PublishPaymentSubmitted(ctx, payment)
	_ = bus.PublishPaymentAdjudicated(ctx, payment)

	want := []string{notify.EventBookingCreated, notify.EventPaymentSubmitted, notify.EventPaymentAdjudicated}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, event := range pub.events {
		if event.Type != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], event.Type)
		}
		if event.CustomerID != "cust-1" {
			t.Errorf("event %d: expected customer cust-1, got %s", i, event.CustomerID)
		}
		if event.ID == "" || event.OccurredAt.IsZero() {
			t.Errorf("event %d: missing id or timestamp", i)
		}
	}
	if pub.events[0].Booking == nil || pub.events[1].Payment == nil {
		t.Error("expected booking and payment payloads to be attached")
	}
}
