package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool      *pgxpool.Pool
	retention time.Duration
}

// NewStore returns a store over the idempotency_keys table. Keys older than
// retention are ignored; zero keeps them forever.
func NewStore(pool *pgxpool.Pool, retention time.Duration) *Store {
	return &Store{pool: pool, retention: retention}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, resource_id
		FROM idempotency_keys
		WHERE key = $1
		  AND ($2::bigint = 0 OR created_at > now() - make_interval(secs => $2::bigint))
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, int64(s.retention.Seconds())).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.ResourceID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Save records the first response for key. An expired row is replaced.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, resource_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body = EXCLUDED.body,
		    resource_id = EXCLUDED.resource_id,
		    created_at = now()
		WHERE $5::bigint > 0
		  AND idempotency_keys.created_at <= now() - make_interval(secs => $5::bigint)
	`

	_, err := s.pool.Exec(ctx, query, key, response.StatusCode, response.Body, response.ResourceID, int64(s.retention.Seconds()))
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}
