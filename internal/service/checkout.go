package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/warungpos/warungpos/internal/apperr"
	"github.com/warungpos/warungpos/internal/model"
	"github.com/warungpos/warungpos/internal/store"
)

// CartItem is one scanned line in the cashier's cart. PriceEach is the price
// shown at scan time; it is copied into the sale so later product edits do
// not change the receipt.
type CartItem struct {
	Barcode   string
	Quantity  int64
	PriceEach int64
}

// ReceiptLine is one sale line with its product name resolved, tombstones
// included.
type ReceiptLine struct {
	Barcode   string `json:"barcode"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	PriceEach int64  `json:"price_each"`
	Subtotal  int64  `json:"subtotal"`
}

// Receipt is the data a receipt printer needs; formatting lives outside the
// core.
type Receipt struct {
	LocalSaleID string        `json:"local_sale_id"`
	Lines       []ReceiptLine `json:"lines"`
	TotalAmount int64         `json:"total_amount"`
	PaidAt      time.Time     `json:"paid_at"`
	Synced      bool          `json:"synced"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, cart []CartItem) (model.PendingSale, error)
	Receipt(ctx context.Context, localSaleID string) (Receipt, error)
}

type checkoutService struct {
	logger *slog.Logger
	local  *store.Store
	online func() bool
	syncFn func(context.Context) error
	now    func() time.Time
	newID  func() (string, error)
}

// NewCheckoutService creates the checkout path. syncFn, when non-nil, is
// invoked opportunistically after an online checkout; it is never required
// for correctness, only for latency.
func NewCheckoutService(
	logger *slog.Logger,
	local *store.Store,
	online func() bool,
	syncFn func(context.Context) error,
	now func() time.Time,
) CheckoutService {
	if now == nil {
		now = time.Now
	}
	return &checkoutService{
		logger: logger.With(slog.String("service", "checkout")),
		local:  local,
		online: online,
		syncFn: syncFn,
		now:    now,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// Checkout commits the cart as a pending sale and decrements stock, all
// locally and independent of connectivity. The sale id is generated client
// side so a retried upload can be recognized as a duplicate.
func (s *checkoutService) Checkout(ctx context.Context, cart []CartItem) (model.PendingSale, error) {
	if len(cart) == 0 {
		return model.PendingSale{}, apperr.CartEmptyErr
	}

	id, err := s.newID()
	if err != nil {
		return model.PendingSale{}, fmt.Errorf("generate sale id: %w", err)
	}

	items := make([]model.SaleItem, 0, len(cart))
	var total int64
	for _, line := range cart {
		subtotal := line.Quantity * line.PriceEach
		items = append(items, model.SaleItem{
			ProductBarcode: line.Barcode,
			Quantity:       line.Quantity,
			PriceEach:      line.PriceEach,
			Subtotal:       subtotal,
		})
		total += subtotal
	}

	sale := model.PendingSale{
		LocalSaleID: id,
		Items:       items,
		TotalAmount: total,
		PaidAt:      s.now().UTC(),
	}

	if err := s.local.CommitSale(ctx, sale); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.PendingSale{}, apperr.ProductNotFoundErr.WrapParent(err)
		}
		return model.PendingSale{}, fmt.Errorf("commit sale: %w", err)
	}

	s.logger.InfoContext(ctx, "sale committed",
		slog.String("local_sale_id", sale.LocalSaleID),
		slog.Int("items", len(sale.Items)),
		slog.Int64("total_amount", sale.TotalAmount),
	)

	if s.online() && s.syncFn != nil {
		syncCtx := context.WithoutCancel(ctx)
		go func() {
			if err := s.syncFn(syncCtx); err != nil {
				s.logger.WarnContext(syncCtx, "post-checkout sync failed", slog.Any("error", err))
			}
		}()
	}

	return sale, nil
}

// Receipt assembles the printable view of a sale. Product names resolve
// through tombstones, so receipts for long-deleted products still render.
func (s *checkoutService) Receipt(ctx context.Context, localSaleID string) (Receipt, error) {
	sale, err := s.local.GetSale(ctx, localSaleID)
	if errors.Is(err, store.ErrNotFound) {
		return Receipt{}, apperr.SaleNotFoundErr
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("get sale: %w", err)
	}

	lines := make([]ReceiptLine, 0, len(sale.Items))
	for _, item := range sale.Items {
		name := ""
		product, err := s.local.GetProduct(ctx, item.ProductBarcode)
		if err == nil {
			name = product.Name
		} else if !errors.Is(err, store.ErrNotFound) {
			return Receipt{}, fmt.Errorf("resolve product name: %w", err)
		}

		lines = append(lines, ReceiptLine{
			Barcode:   item.ProductBarcode,
			Name:      name,
			Quantity:  item.Quantity,
			PriceEach: item.PriceEach,
			Subtotal:  item.Subtotal,
		})
	}

	return Receipt{
		LocalSaleID: sale.LocalSaleID,
		Lines:       lines,
		TotalAmount: sale.TotalAmount,
		PaidAt:      sale.PaidAt,
		Synced:      sale.Synced,
	}, nil
}
