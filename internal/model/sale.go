package model

import "time"

// SaleItem is one line of a sale. Values are copied from the product at
// checkout time, not live references, so a later product edit or soft delete
// does not change historical sales.
type SaleItem struct {
	ProductBarcode string `json:"product_barcode"`
	Quantity       int64  `json:"quantity"`
	PriceEach      int64  `json:"price_each"`
	Subtotal       int64  `json:"subtotal"`
}

// PendingSale is one completed checkout transaction not yet confirmed by the
// remote store. LocalSaleID is a client-generated UUIDv7 idempotency key.
type PendingSale struct {
	LocalSaleID string     `json:"local_sale_id"`
	Items       []SaleItem `json:"items"`
	TotalAmount int64      `json:"total_amount"`
	PaidAt      time.Time  `json:"paid_at"`
	Synced      bool       `json:"synced"`
}
