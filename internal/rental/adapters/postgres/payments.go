package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, booking_id, customer_id, amount_cents, proof_ref, status,
	reviewed_by, reviewed_at, created_at, updated_at`

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Upsert relies on the unique booking_id; the update branch is skipped for
// APPROVED rows, which surfaces as ErrStatusConflict. The booking row is
// share-locked for the duration of the write so a concurrent status change
// either waits for it or is observed by it.
func (r *PaymentRepository) Upsert(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin payment upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var bookingStatus domain.BookingStatus
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR SHARE`, payment.BookingID).Scan(&bookingStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	if bookingStatus != domain.BookingPending {
		return nil, ports.ErrBookingNotPending
	}

	query := `
		INSERT INTO payments (id, booking_id, customer_id, amount_cents, proof_ref, status,
			reviewed_by, reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'PENDING', '', NULL, $6, $7)
		ON CONFLICT (booking_id) DO UPDATE
		SET amount_cents = EXCLUDED.amount_cents,
		    proof_ref = EXCLUDED.proof_ref,
		    status = 'PENDING',
		    reviewed_by = '',
		    reviewed_at = NULL,
		    updated_at = EXCLUDED.updated_at
		WHERE payments.status <> 'APPROVED'
		RETURNING ` + paymentColumns

	saved, err := scanPayment(tx.QueryRow(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.CustomerID,
		payment.AmountCents,
		payment.ProofRef,
		payment.CreatedAt,
		payment.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrStatusConflict
		}
		return nil, fmt.Errorf("upsert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment upsert: %w", err)
	}
	return saved, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	return r.getBy(ctx, "booking_id", bookingID)
}

func (r *PaymentRepository) getBy(ctx context.Context, column, value string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + column + ` = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}

	return payment, nil
}

func (r *PaymentRepository) List(ctx context.Context, filter ports.PaymentFilter) ([]domain.Payment, error) {
	page, pageSize := ports.Normalize(filter.Page, filter.PageSize)

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	rows, err := r.pool.Query(ctx, query, statusFilter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepository) Adjudicate(ctx context.Context, id string, decision domain.PaymentStatus, reviewer string, at time.Time) (*domain.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4 AND status = 'PENDING'
		RETURNING ` + paymentColumns

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, decision, reviewer, at, id))
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjudicate payment: %w", err)
	}

	return nil, missingOrConflict(ctx, r.pool, "payments", id, ports.ErrStatusConflict)
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.CustomerID,
		&p.AmountCents,
		&p.ProofRef,
		&p.Status,
		&p.ReviewedBy,
		&p.ReviewedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
