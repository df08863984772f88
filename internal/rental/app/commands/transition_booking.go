package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

type TransitionBookingCommand struct {
	Actor     domain.Actor
	BookingID string
	Target    domain.BookingStatus
}

func (c TransitionBookingCommand) CommandName() string { return "TransitionBookingCommand" }

func (c TransitionBookingCommand) LogAttrs() []any {
	return []any{
		"actor_id", c.Actor.ID,
		"actor_role", string(c.Actor.Role),
		"booking_id", c.BookingID,
		"target", string(c.Target),
	}
}

func (c TransitionBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}
	if !c.Target.IsValid() {
		return fmt.Errorf("%w: unknown booking status %q", domain.ErrValidation, c.Target)
	}
	return nil
}

type TransitionBookingHandler struct {
	bookings ports.BookingRepository
	events   ports.EventBus
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewTransitionBookingHandler(
	bookings ports.BookingRepository,
	events ports.EventBus,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *TransitionBookingHandler {
	return &TransitionBookingHandler{
		bookings: bookings,
		events:   events,
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*domain.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	booking, err := h.bookings.GetByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, notFound(err, "booking", cmd.BookingID)
	}

	if err := booking.CheckTransition(cmd.Actor, cmd.Target); err != nil {
		return nil, err
	}

	from := booking.Status
	updated, err := h.bookings.UpdateStatus(ctx, booking.ID, from, cmd.Target)
	if err != nil {
		return nil, h.mapUpdateError(err, booking.ID, from, cmd.Target)
	}

	h.metrics.RecordBookingTransition(ctx, string(from), string(updated.Status))
	publishFailed(ctx, h.logger, "booking.status_changed", h.events.PublishBookingStatusChanged(ctx, *updated, from))

	return updated, nil
}

func (h *TransitionBookingHandler) mapUpdateError(err error, id string, from, to domain.BookingStatus) error {
	switch {
	case errors.Is(err, ports.ErrStatusConflict):
		return fmt.Errorf("%w: booking %s changed concurrently, %s -> %s no longer applies", domain.ErrInvalidTransition, id, from, to)
	case errors.Is(err, ports.ErrNotFound):
		return notFound(err, "booking", id)
	default:
		return fmt.Errorf("update booking status: %w", err)
	}
}
