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

const bookingColumns = `id, customer_id, product_id, start_date, end_date, days,
	price_per_day_cents, total_cents, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.CustomerID,
		booking.ProductID,
		booking.StartDate,
		booking.EndDate,
		booking.Days,
		booking.PricePerDayCents,
		booking.TotalCents,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepository) List(ctx context.Context, filter ports.BookingFilter) ([]domain.Booking, error) {
	page, pageSize := ports.Normalize(filter.Page, filter.PageSize)

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2 = '' OR customer_id = $2)
		  AND ($3 = '' OR product_id = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	rows, err := r.pool.Query(ctx, query, statusFilter, filter.CustomerID, filter.ProductID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, to, time.Now().UTC(), id, from))
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	return nil, missingOrConflict(ctx, r.pool, "bookings", id, ports.ErrStatusConflict)
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&b.ProductID,
		&b.StartDate,
		&b.EndDate,
		&b.Days,
		&b.PricePerDayCents,
		&b.TotalCents,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartDate = domain.TruncateDate(b.StartDate)
	b.EndDate = domain.TruncateDate(b.EndDate)
	return &b, nil
}

// missingOrConflict tells apart a conditional write that matched no row
// because the row is gone from one whose guard failed.
func missingOrConflict(ctx context.Context, pool *pgxpool.Pool, table, id string, conflict error) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s row: %w", table, err)
	}
	if !exists {
		return ports.ErrNotFound
	}
	return conflict
}
