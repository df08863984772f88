package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

// ProductRepository keeps the catalogue in memory.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductRepository constructs a new in-memory product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]domain.Product)}
}

func (r *ProductRepository) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	out := cloneProduct(product)
	return &out, nil
}

// List returns products ordered by English name.
func (r *ProductRepository) List(_ context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Product
	for _, p := range r.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.BookableOnly && !p.IsBookable() {
			continue
		}
		result = append(result, cloneProduct(p))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].NameEN == result[j].NameEN {
			return result[i].ID < result[j].ID
		}
		return result[i].NameEN < result[j].NameEN
	})

	return paginate(result, filter.Page, filter.PageSize), nil
}

func (r *ProductRepository) UpdateInventory(_ context.Context, id string, stock int, available bool) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	product.Stock = stock
	product.Available = available
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product

	out := cloneProduct(product)
	return &out, nil
}

func (r *ProductRepository) AdjustStock(_ context.Context, id string, delta int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if product.Stock+delta < 0 {
		return nil, ports.ErrInsufficientStock
	}
	product.Stock += delta
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product

	out := cloneProduct(product)
	return &out, nil
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}
