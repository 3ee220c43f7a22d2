// Package remote talks to the authoritative backend store. It is only
// reachable when the terminal is online; all local reads go through the
// store package instead.
package remote

import (
	"context"
	"time"

	"github.com/warungpos/warungpos/internal/model"
)

// Store is the remote side of the sync protocol. Implementations must be
// safe for concurrent use.
type Store interface {
	// UpsertProduct creates or replaces a product keyed by barcode.
	// Uploading the same snapshot twice is harmless.
	UpsertProduct(ctx context.Context, p model.Product) error

	// SoftDeleteProduct marks a product deleted without removing the row.
	SoftDeleteProduct(ctx context.Context, barcode string, deletedAt, updatedAt time.Time) error

	// ListProducts returns every product, tombstones included, newest first.
	ListProducts(ctx context.Context) ([]model.Product, error)

	// InsertSale inserts a sale header and returns the server-assigned id.
	InsertSale(ctx context.Context, totalAmount int64, paidAt time.Time) (int64, error)

	// InsertSaleItems inserts the line items for a previously inserted sale.
	InsertSaleItems(ctx context.Context, saleID int64, items []model.SaleItem) error

	// Ping reports whether the remote store is reachable.
	Ping(ctx context.Context) error
}
