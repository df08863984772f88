package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

type AdjudicatePaymentCommand struct {
	Actor     domain.Actor
	PaymentID string
	Decision  domain.PaymentStatus
}

func (c AdjudicatePaymentCommand) CommandName() string { return "AdjudicatePaymentCommand" }

func (c AdjudicatePaymentCommand) LogAttrs() []any {
	return []any{
		"actor_id", c.Actor.ID,
		"payment_id", c.PaymentID,
		"decision", string(c.Decision),
	}
}

func (c AdjudicatePaymentCommand) Validate() error {
	if err := requireAdmin(c.Actor, "adjudicate payments"); err != nil {
		return err
	}
	if strings.TrimSpace(c.PaymentID) == "" {
		return fmt.Errorf("%w: payment_id is required", domain.ErrValidation)
	}
	if c.Decision != domain.PaymentApproved && c.Decision != domain.PaymentRejected {
		return fmt.Errorf("%w: decision must be APPROVED or REJECTED", domain.ErrValidation)
	}
	return nil
}

// AdjudicatePaymentHandler records admin decisions. With autoConfirm set an
// approval also moves a PENDING booking to CONFIRMED; that step is best
// effort and never undoes the decision.
type AdjudicatePaymentHandler struct {
	payments    ports.PaymentRepository
	bookings    ports.BookingRepository
	events      ports.EventBus
	logger      *slog.Logger
	metrics     *metrics.Metrics
	autoConfirm bool
}

func NewAdjudicatePaymentHandler(
	payments ports.PaymentRepository,
	bookings ports.BookingRepository,
	events ports.EventBus,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	autoConfirm bool,
) *AdjudicatePaymentHandler {
	return &AdjudicatePaymentHandler{
		payments:    payments,
		bookings:    bookings,
		events:      events,
		logger:      logger,
		metrics:     metrics,
		autoConfirm: autoConfirm,
	}
}

func (h *AdjudicatePaymentHandler) Handle(ctx context.Context, cmd AdjudicatePaymentCommand) (*domain.Payment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	payment, err := h.payments.GetByID(ctx, cmd.PaymentID)
	if err != nil {
		return nil, notFound(err, "payment", cmd.PaymentID)
	}

	if err := payment.CheckAdjudication(cmd.Actor, cmd.Decision); err != nil {
		return nil, err
	}

	decided, err := h.payments.Adjudicate(ctx, payment.ID, cmd.Decision, cmd.Actor.ID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrStatusConflict):
			return nil, fmt.Errorf("%w: payment %s was decided concurrently", domain.ErrAlreadyAdjudicated, payment.ID)
		case errors.Is(err, ports.ErrNotFound):
			return nil, notFound(err, "payment", payment.ID)
		default:
			return nil, fmt.Errorf("adjudicate payment: %w", err)
		}
	}

	h.metrics.RecordPaymentAdjudicated(ctx, string(decided.Status))
	publishFailed(ctx, h.logger, "payment.adjudicated", h.events.PublishPaymentAdjudicated(ctx, *decided))

	if h.autoConfirm && decided.Status == domain.PaymentApproved {
		h.confirmBooking(ctx, decided.BookingID)
	}

	return decided, nil
}

func (h *AdjudicatePaymentHandler) confirmBooking(ctx context.Context, bookingID string) {
	booking, err := h.bookings.UpdateStatus(ctx, bookingID, domain.BookingPending, domain.BookingConfirmed)
	if err != nil {
		h.logger.WarnContext(ctx, "booking not confirmed after payment approval",
			"booking_id", bookingID,
			"error", err,
		)
		return
	}

	h.metrics.RecordBookingTransition(ctx, string(domain.BookingPending), string(domain.BookingConfirmed))
	publishFailed(ctx, h.logger, "booking.status_changed", h.events.PublishBookingStatusChanged(ctx, *booking, domain.BookingPending))
}
