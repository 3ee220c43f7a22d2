// Package service implements the terminal's write paths: product mutations
// with their journal-first enqueue policy, and checkout.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/warungpos/warungpos/internal/apperr"
	"github.com/warungpos/warungpos/internal/model"
	"github.com/warungpos/warungpos/internal/remote"
	"github.com/warungpos/warungpos/internal/store"
)

type CreateProductParams struct {
	Barcode string
	Name    string
	Price   int64
	Stock   int64
}

type UpdateProductParams struct {
	Name  *string
	Price *int64
	Stock *int64
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, barcode string, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, barcode string) error
	GetProduct(ctx context.Context, barcode string) (model.Product, error)
	ListProducts(ctx context.Context, includeDeleted bool) ([]model.Product, error)
	ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error)
}

type productService struct {
	logger *slog.Logger
	local  *store.Store
	remote remote.Store
	online func() bool
	now    func() time.Time
}

// NewProductService creates the product write path. online reports current
// connectivity; now is injectable for deterministic tests and defaults to
// time.Now.
func NewProductService(
	logger *slog.Logger,
	local *store.Store,
	remoteStore remote.Store,
	online func() bool,
	now func() time.Time,
) ProductService {
	if now == nil {
		now = time.Now
	}
	return &productService{
		logger: logger.With(slog.String("service", "product")),
		local:  local,
		remote: remoteStore,
		online: online,
		now:    now,
	}
}

// Every mutation follows the same journal-first policy: the intent is
// appended to the change journal and the local row is written before any
// network is attempted. The journal is the durability boundary: an online
// flush that succeeds merely flips synced=1 sooner, and a flush that fails
// leaves the entry for the next sync pass. The user is never blocked by
// connectivity.

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	_, err := s.local.GetProduct(ctx, params.Barcode)
	if err == nil {
		// Barcodes are never reused, tombstones included.
		return model.Product{}, apperr.ProductExistsErr
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	now := s.now().UTC()
	product := model.Product{
		Barcode:   params.Barcode,
		Name:      params.Name,
		Price:     params.Price,
		Stock:     params.Stock,
		UpdatedAt: now,
		IsActive:  true,
	}

	if err := s.local.PutProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("put product: %w", err)
	}

	s.enqueue(ctx, model.ActionCreate, product, now)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, barcode string, params UpdateProductParams) (model.Product, error) {
	product, err := s.local.GetProduct(ctx, barcode)
	if errors.Is(err, store.ErrNotFound) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	if params.Name != nil {
		product.Name = *params.Name
	}
	if params.Price != nil {
		product.Price = *params.Price
	}
	if params.Stock != nil {
		product.Stock = *params.Stock
	}
	product.UpdatedAt = s.now().UTC()

	if err := s.local.PutProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("put product: %w", err)
	}

	s.enqueue(ctx, model.ActionUpdate, product, product.UpdatedAt)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, barcode string) error {
	product, err := s.local.GetProduct(ctx, barcode)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ProductNotFoundErr
	}
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if !product.IsActive {
		return nil
	}

	now := s.now().UTC()
	product.IsActive = false
	product.DeletedAt = &now
	product.UpdatedAt = now

	if err := s.local.PutProduct(ctx, product); err != nil {
		return fmt.Errorf("put product: %w", err)
	}

	s.enqueue(ctx, model.ActionDelete, product, now)
	return nil
}

func (s *productService) GetProduct(ctx context.Context, barcode string) (model.Product, error) {
	product, err := s.local.GetProduct(ctx, barcode)
	if errors.Is(err, store.ErrNotFound) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, includeDeleted bool) ([]model.Product, error) {
	products, err := s.local.ListProducts(ctx, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *productService) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	products, err := s.local.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return products, nil
}

// enqueue journals the intent, then attempts an immediate flush when online.
// A local journal failure is fatal for the mutation's delivery guarantee and
// is surfaced loudly in the log; the local row write has already succeeded.
func (s *productService) enqueue(ctx context.Context, action model.ChangeAction, snapshot model.Product, at time.Time) {
	id, err := s.local.AppendChange(ctx, model.PendingProductChange{
		Barcode:     snapshot.Barcode,
		Action:      action,
		ProductData: snapshot,
		CreatedAt:   at,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "appending change journal entry failed, mutation will not reach remote store",
			slog.String("barcode", snapshot.Barcode),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
		return
	}

	if !s.online() {
		return
	}

	switch action {
	case model.ActionDelete:
		deletedAt := at
		if snapshot.DeletedAt != nil {
			deletedAt = *snapshot.DeletedAt
		}
		err = s.remote.SoftDeleteProduct(ctx, snapshot.Barcode, deletedAt, snapshot.UpdatedAt)
	default:
		err = s.remote.UpsertProduct(ctx, snapshot)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "immediate flush failed, change left for next sync pass",
			slog.String("barcode", snapshot.Barcode),
			slog.Any("error", err),
		)
		return
	}

	if err := s.local.MarkChangeSynced(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "marking change synced failed",
			slog.Int64("change_id", id), slog.Any("error", err))
	}
}
