package queries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

type GetProductQueryHandler struct {
	repo ports.ProductRepository
}

func NewGetProductQueryHandler(repo ports.ProductRepository) *GetProductQueryHandler {
	return &GetProductQueryHandler{repo: repo}
}

func (h *GetProductQueryHandler) Handle(ctx context.Context, productID string) (*domain.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}
	product, err := h.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product", productID)
	}
	return product, nil
}

type ListProductsQuery struct {
	CategoryID   string
	BookableOnly bool
	Page         int
	PageSize     int
}

type ListProductsQueryHandler struct {
	repo ports.ProductRepository
}

func NewListProductsQueryHandler(repo ports.ProductRepository) *ListProductsQueryHandler {
	return &ListProductsQueryHandler{repo: repo}
}

func (h *ListProductsQueryHandler) Handle(ctx context.Context, query ListProductsQuery) ([]domain.Product, error) {
	page, pageSize := ports.Normalize(query.Page, query.PageSize)
	products, err := h.repo.List(ctx, ports.ProductFilter{
		CategoryID:   query.CategoryID,
		BookableOnly: query.BookableOnly,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// QuoteBookingQuery prices a candidate booking without persisting it.
type QuoteBookingQuery struct {
	ProductID string
	StartDate time.Time
	EndDate   time.Time
}

// QuoteResult is the booking form preview.
type QuoteResult struct {
	ProductID string `json:"product_id"`
	Bookable  bool   `json:"bookable"`
	domain.Quote
}

type QuoteBookingQueryHandler struct {
	repo ports.ProductRepository
}

func NewQuoteBookingQueryHandler(repo ports.ProductRepository) *QuoteBookingQueryHandler {
	return &QuoteBookingQueryHandler{repo: repo}
}

func (h *QuoteBookingQueryHandler) Handle(ctx context.Context, query QuoteBookingQuery) (*QuoteResult, error) {
	if strings.TrimSpace(query.ProductID) == "" {
		return nil, fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}

	product, err := h.repo.GetByID(ctx, query.ProductID)
	if err != nil {
		return nil, notFound(err, "product", query.ProductID)
	}

	quote, err := domain.ComputeTotal(query.StartDate, query.EndDate, product.PricePerDayCents)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		ProductID: product.ID,
		Bookable:  product.IsBookable(),
		Quote:     quote,
	}, nil
}
