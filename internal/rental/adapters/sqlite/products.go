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

type ProductRepository struct {
	db *gorm.DB
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) error {
	rec := productFromDomain(product)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return getProduct(r.db.WithContext(ctx), id)
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	page, pageSize := ports.Normalize(filter.Page, filter.PageSize)

	q := r.db.WithContext(ctx).Model(&productRecord{})
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.BookableOnly {
		q = q.Where("stock > 0 AND available = ?", true)
	}

	var recs []productRecord
	err := q.Order("name_en ASC").Order("id ASC").
		Limit(pageSize).Offset(offset(page, pageSize)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		products = append(products, rec.toDomain())
	}
	return products, nil
}

func (r *ProductRepository) UpdateInventory(ctx context.Context, id string, stock int, available bool) (*domain.Product, error) {
	var updated *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productRecord{}).
			Where("id = ?", id).
			Updates(map[string]any{"stock": stock, "available": available, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("update product inventory: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ports.ErrNotFound
		}

		p, err := getProduct(tx, id)
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	var updated *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productRecord{}).
			Where("id = ? AND stock + ? >= 0", id, delta).
			Updates(map[string]any{"stock": gorm.Expr("stock + ?", delta), "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("adjust product stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrConflict(tx, &productRecord{}, id, ports.ErrInsufficientStock)
		}

		p, err := getProduct(tx, id)
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getProduct(db *gorm.DB, id string) (*domain.Product, error) {
	var rec productRecord
	if err := db.Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}
