package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func (r *PaymentRepository) Upsert(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	var saved *domain.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking bookingRecord
		err := tx.Select("status").Where("id = ?", payment.BookingID).Take(&booking).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ports.ErrNotFound
		case err != nil:
			return fmt.Errorf("select booking: %w", err)
		case booking.Status != string(domain.BookingPending):
			return ports.ErrBookingNotPending
		}

		var existing paymentRecord
		err = tx.Where("booking_id = ?", payment.BookingID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec := paymentFromDomain(payment)
			rec.Status = string(domain.PaymentPending)
			rec.ReviewedBy = ""
			rec.ReviewedAt = nil
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}
			p := rec.toDomain()
			saved = &p
			return nil
		case err != nil:
			return fmt.Errorf("select payment: %w", err)
		}

		res := tx.Model(&paymentRecord{}).
			Where("id = ? AND status <> ?", existing.ID, string(domain.PaymentApproved)).
			Updates(map[string]any{
				"amount_cents": payment.AmountCents,
				"proof_ref":    payment.ProofRef,
				"status":       string(domain.PaymentPending),
				"reviewed_by":  "",
				"reviewed_at":  nil,
				"updated_at":   payment.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("replace payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ports.ErrStatusConflict
		}

		p, err := getPayment(tx, "id = ?", existing.ID)
		saved = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return getPayment(r.db.WithContext(ctx), "id = ?", id)
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	return getPayment(r.db.WithContext(ctx), "booking_id = ?", bookingID)
}

func (r *PaymentRepository) List(ctx context.Context, filter ports.PaymentFilter) ([]domain.Payment, error) {
	page, pageSize := ports.Normalize(filter.Page, filter.PageSize)

	q := r.db.WithContext(ctx).Model(&paymentRecord{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}

	var recs []paymentRecord
	err := q.Order("created_at ASC").Order("id ASC").
		Limit(pageSize).Offset(offset(page, pageSize)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}

	payments := make([]domain.Payment, 0, len(recs))
	for _, rec := range recs {
		payments = append(payments, rec.toDomain())
	}
	return payments, nil
}

func (r *PaymentRepository) Adjudicate(ctx context.Context, id string, decision domain.PaymentStatus, reviewer string, at time.Time) (*domain.Payment, error) {
	var decided *domain.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&paymentRecord{}).
			Where("id = ? AND status = ?", id, string(domain.PaymentPending)).
			Updates(map[string]any{
				"status":      string(decision),
				"reviewed_by": reviewer,
				"reviewed_at": at,
				"updated_at":  at,
			})
		if res.Error != nil {
			return fmt.Errorf("adjudicate payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrConflict(tx, &paymentRecord{}, id, ports.ErrStatusConflict)
		}

		p, err := getPayment(tx, "id = ?", id)
		decided = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

func getPayment(db *gorm.DB, where string, arg string) (*domain.Payment, error) {
	var rec paymentRecord
	if err := db.Where(where, arg).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}
