package domain

import (
	"fmt"
	"strings"
)

// BookingStatus captures the lifecycle of a rental order.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingActive    BookingStatus = "ACTIVE"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// bookingTransitions is the complete transition graph. Statuses with no
// outgoing edges are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted},
	BookingCompleted: {},
	BookingCancelled: {},
}

// BookingStatuses lists every status in lifecycle order.
func BookingStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled}
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	next, ok := bookingTransitions[s]
	return !ok || len(next) == 0
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus accepts any letter case.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
	}
	return status, nil
}

// PaymentStatus captures the review state of a proof-of-payment submission.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentRejected PaymentStatus = "REJECTED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	return string(s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, s)
	}
	return status, nil
}

// ParseDecision parses an adjudication decision. Only APPROVED and REJECTED
// are decisions; PENDING is not.
func ParseDecision(s string) (PaymentStatus, error) {
	status, err := ParsePaymentStatus(s)
	if err != nil {
		return "", err
	}
	if status == PaymentPending {
		return "", fmt.Errorf("%w: decision must be APPROVED or REJECTED", ErrValidation)
	}
	return status, nil
}
