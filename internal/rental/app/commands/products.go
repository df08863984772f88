package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/google/uuid"
)

type CreateProductCommand struct {
	Actor            domain.Actor
	NameEN           string
	NameTH           string
	PricePerDayCents int64
	Stock            int
	Available        bool
	Size             string
	CategoryID       string
	Images           []string
}

func (c CreateProductCommand) CommandName() string { return "CreateProductCommand" }

func (c CreateProductCommand) LogAttrs() []any {
	return []any{
		"actor_id", c.Actor.ID,
		"name_en", c.NameEN,
		"price_per_day_cents", c.PricePerDayCents,
		"stock", c.Stock,
	}
}

type CreateProductHandler struct {
	products ports.ProductRepository
}

func NewCreateProductHandler(products ports.ProductRepository) *CreateProductHandler {
	return &CreateProductHandler{products: products}
}

func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if err := requireAdmin(cmd.Actor, "manage products"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:               uuid.NewString(),
		NameEN:           strings.TrimSpace(cmd.NameEN),
		NameTH:           strings.TrimSpace(cmd.NameTH),
		PricePerDayCents: cmd.PricePerDayCents,
		Stock:            cmd.Stock,
		Available:        cmd.Available,
		Size:             cmd.Size,
		CategoryID:       cmd.CategoryID,
		Images:           append([]string(nil), cmd.Images...),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := h.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return &product, nil
}

// UpdateInventoryCommand overwrites the stock counter and availability flag.
type UpdateInventoryCommand struct {
	Actor     domain.Actor
	ProductID string
	Stock     int
	Available bool
}

func (c UpdateInventoryCommand) CommandName() string { return "UpdateInventoryCommand" }

func (c UpdateInventoryCommand) LogAttrs() []any {
	return []any{
		"actor_id", c.Actor.ID,
		"product_id", c.ProductID,
		"stock", c.Stock,
		"available", c.Available,
	}
}

type UpdateInventoryHandler struct {
	products ports.ProductRepository
}

func NewUpdateInventoryHandler(products ports.ProductRepository) *UpdateInventoryHandler {
	return &UpdateInventoryHandler{products: products}
}

func (h *UpdateInventoryHandler) Handle(ctx context.Context, cmd UpdateInventoryCommand) (*domain.Product, error) {
	if err := requireAdmin(cmd.Actor, "manage products"); err != nil {
		return nil, err
	}
	if cmd.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", domain.ErrValidation)
	}

	product, err := h.products.UpdateInventory(ctx, cmd.ProductID, cmd.Stock, cmd.Available)
	if err != nil {
		return nil, notFound(err, "product", cmd.ProductID)
	}
	return product, nil
}

// AdjustStockCommand moves the stock counter by Delta, e.g. after a costume
// is retired or returned from repair.
type AdjustStockCommand struct {
	Actor     domain.Actor
	ProductID string
	Delta     int
}

func (c AdjustStockCommand) CommandName() string { return "AdjustStockCommand" }

func (c AdjustStockCommand) LogAttrs() []any {
	return []any{
		"actor_id", c.Actor.ID,
		"product_id", c.ProductID,
		"delta", c.Delta,
	}
}

type AdjustStockHandler struct {
	products ports.ProductRepository
}

func NewAdjustStockHandler(products ports.ProductRepository) *AdjustStockHandler {
	return &AdjustStockHandler{products: products}
}

func (h *AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*domain.Product, error) {
	if err := requireAdmin(cmd.Actor, "manage products"); err != nil {
		return nil, err
	}
	if cmd.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", domain.ErrValidation)
	}

	product, err := h.products.AdjustStock(ctx, cmd.ProductID, cmd.Delta)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: stock of product %s cannot go below zero", domain.ErrValidation, cmd.ProductID)
		}
		return nil, notFound(err, "product", cmd.ProductID)
	}
	return product, nil
}
