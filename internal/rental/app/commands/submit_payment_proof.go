package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/google/uuid"
)

// SubmitPaymentProofCommand carries either a ready proof reference or an
// upload that is pushed to the proof store first.
type SubmitPaymentProofCommand struct {
	Actor       domain.Actor
	BookingID   string
	AmountCents int64
	ProofRef    string
	Upload      *ports.ProofUpload
}

func (c SubmitPaymentProofCommand) CommandName() string { return "SubmitPaymentProofCommand" }

func (c SubmitPaymentProofCommand) LogAttrs() []any {
	attrs := []any{
		"actor_id", c.Actor.ID,
		"booking_id", c.BookingID,
		"amount_cents", c.AmountCents,
	}
	if c.Upload != nil {
		attrs = append(attrs, "upload_filename", c.Upload.Filename)
	}
	return attrs
}

func (c SubmitPaymentProofCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}
	if c.Upload == nil && strings.TrimSpace(c.ProofRef) == "" {
		return fmt.Errorf("%w: a proof reference or upload is required", domain.ErrValidation)
	}
	if c.Upload != nil && c.Upload.Body == nil {
		return fmt.Errorf("%w: upload has no content", domain.ErrValidation)
	}
	return nil
}

type SubmitPaymentProofHandler struct {
	bookings ports.BookingRepository
	payments ports.PaymentRepository
	proofs   ports.ProofStore
	events   ports.EventBus
	logger   *slog.Logger
}

// NewSubmitPaymentProofHandler wires the handler. proofs may be nil, in
// which case only pre-uploaded proof references are accepted.
func NewSubmitPaymentProofHandler(
	bookings ports.BookingRepository,
	payments ports.PaymentRepository,
	proofs ports.ProofStore,
	events ports.EventBus,
	logger *slog.Logger,
) *SubmitPaymentProofHandler {
	return &SubmitPaymentProofHandler{
		bookings: bookings,
		payments: payments,
		proofs:   proofs,
		events:   events,
		logger:   logger,
	}
}

func (h *SubmitPaymentProofHandler) Handle(ctx context.Context, cmd SubmitPaymentProofCommand) (*domain.Payment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	booking, err := h.bookings.GetByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, notFound(err, "booking", cmd.BookingID)
	}

	if err := domain.CheckSubmission(cmd.Actor, *booking, cmd.AmountCents); err != nil {
		return nil, err
	}

	existing, err := h.payments.GetByBookingID(ctx, booking.ID)
	switch {
	case err == nil && !existing.CanBeReplaced():
		return nil, fmt.Errorf("%w: payment %s for booking %s is %s", domain.ErrAlreadyAdjudicated, existing.ID, booking.ID, existing.Status)
	case err != nil && !errors.Is(err, ports.ErrNotFound):
		return nil, fmt.Errorf("load payment for booking: %w", err)
	}

	proofRef := cmd.ProofRef
	if cmd.Upload != nil {
		proofRef, err = h.upload(ctx, booking.ID, *cmd.Upload)
		if err != nil {
			return nil, err
		}
	}

	payment, err := domain.NewPayment(uuid.NewString(), *booking, cmd.AmountCents, proofRef, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	saved, err := h.payments.Upsert(ctx, payment)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrStatusConflict):
			return nil, fmt.Errorf("%w: payment for booking %s was approved concurrently", domain.ErrAlreadyAdjudicated, booking.ID)
		case errors.Is(err, ports.ErrBookingNotPending):
			return nil, fmt.Errorf("%w: booking %s left PENDING before the payment was saved", domain.ErrValidation, booking.ID)
		case errors.Is(err, ports.ErrNotFound):
			return nil, notFound(err, "booking", booking.ID)
		}
		return nil, fmt.Errorf("save payment: %w", err)
	}

	if !saved.MatchesTotal(*booking) {
		h.logger.WarnContext(ctx, "payment amount does not match booking total",
			"payment_id", saved.ID,
			"booking_id", booking.ID,
			"amount_cents", saved.AmountCents,
			"total_cents", booking.TotalCents,
		)
	}

	publishFailed(ctx, h.logger, "payment.submitted", h.events.PublishPaymentSubmitted(ctx, *saved))

	return saved, nil
}

func (h *SubmitPaymentProofHandler) upload(ctx context.Context, bookingID string, upload ports.ProofUpload) (string, error) {
	if h.proofs == nil {
		return "", fmt.Errorf("%w: no proof store configured", domain.ErrUploadFailed)
	}
	ref, err := h.proofs.Upload(ctx, bookingID, upload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: proof store returned an empty reference", domain.ErrUploadFailed)
	}
	return ref, nil
}
