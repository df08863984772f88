package domain

import (
	"fmt"
	"strings"
	"time"
)

// Payment is a proof-of-payment submission tied to exactly one booking.
type Payment struct {
	ID          string        `json:"id"`
	BookingID   string        `json:"booking_id"`
	CustomerID  string        `json:"customer_id"`
	AmountCents int64         `json:"amount_cents"`
	ProofRef    string        `json:"proof_ref"`
	Status      PaymentStatus `json:"status"`
	ReviewedBy  string        `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CheckSubmission validates a proof submission against the booking it pays for.
func CheckSubmission(actor Actor, booking Booking, amountCents int64) error {
	if !actor.IsAdmin() && !actor.Owns(booking.CustomerID) {
		return fmt.Errorf("%w: booking %s belongs to another customer", ErrUnauthorized, booking.ID)
	}
	if booking.Status != BookingPending {
		return fmt.Errorf("%w: booking %s is %s, payments are accepted only while PENDING", ErrValidation, booking.ID, booking.Status)
	}
	if amountCents <= 0 {
		return fmt.Errorf("%w: amount_cents must be positive", ErrValidation)
	}
	return nil
}

// NewPayment builds a PENDING submission for booking.
func NewPayment(id string, booking Booking, amountCents int64, proofRef string, now time.Time) (Payment, error) {
	if strings.TrimSpace(proofRef) == "" {
		return Payment{}, fmt.Errorf("%w: proof reference is required", ErrValidation)
	}
	return Payment{
		ID:          id,
		BookingID:   booking.ID,
		CustomerID:  booking.CustomerID,
		AmountCents: amountCents,
		ProofRef:    proofRef,
		Status:      PaymentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanBeReplaced reports whether a customer may overwrite this submission.
// Approved payments are final.
func (p Payment) CanBeReplaced() bool {
	return p.Status != PaymentApproved
}

// CheckAdjudication validates an admin decision on the payment.
func (p Payment) CheckAdjudication(actor Actor, decision PaymentStatus) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only an admin may adjudicate payments", ErrUnauthorized)
	}
	if decision != PaymentApproved && decision != PaymentRejected {
		return fmt.Errorf("%w: decision must be APPROVED or REJECTED", ErrValidation)
	}
	if p.Status != PaymentPending {
		return fmt.Errorf("%w: payment %s is %s", ErrAlreadyAdjudicated, p.ID, p.Status)
	}
	return nil
}

// Adjudicate applies a checked decision in memory.
func (p *Payment) Adjudicate(actor Actor, decision PaymentStatus, now time.Time) error {
	if err := p.CheckAdjudication(actor, decision); err != nil {
		return err
	}
	p.Status = decision
	p.ReviewedBy = actor.ID
	p.ReviewedAt = &now
	p.UpdatedAt = now
	return nil
}

// MatchesTotal reports whether the claimed amount equals the booking total.
func (p Payment) MatchesTotal(b Booking) bool {
	return p.AmountCents == b.TotalCents
}
