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

const productColumns = `id, name_en, name_th, price_per_day_cents, stock, available,
	size, category_id, images, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	images := product.Images
	if images == nil {
		images = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.NameEN,
		product.NameTH,
		product.PricePerDayCents,
		product.Stock,
		product.Available,
		product.Size,
		product.CategoryID,
		images,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	page, pageSize := ports.Normalize(filter.Page, filter.PageSize)

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category_id = $1)
		  AND (NOT $2 OR (stock > 0 AND available))
		ORDER BY name_en ASC, id ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, filter.CategoryID, filter.BookableOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) UpdateInventory(ctx context.Context, id string, stock int, available bool) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = $1, available = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + productColumns

	product, err := scanProduct(r.pool.QueryRow(ctx, query, stock, available, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("update product inventory: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = $2
		WHERE id = $3 AND stock + $1 >= 0
		RETURNING ` + productColumns

	product, err := scanProduct(r.pool.QueryRow(ctx, query, delta, time.Now().UTC(), id))
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust product stock: %w", err)
	}

	return nil, missingOrConflict(ctx, r.pool, "products", id, ports.ErrInsufficientStock)
}

func scanProduct(row scanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.NameEN,
		&p.NameTH,
		&p.PricePerDayCents,
		&p.Stock,
		&p.Available,
		&p.Size,
		&p.CategoryID,
		&p.Images,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
