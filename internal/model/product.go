package model

import "time"

// Product is one item of stock, keyed by barcode. Barcodes are globally
// unique and never reused. Prices are integer minor currency units.
//
// A product row is never physically removed: deletion sets IsActive=false
// and DeletedAt, so historical sale line items can still resolve a name.
type Product struct {
	Barcode   string     `json:"barcode"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Stock     int64      `json:"stock"`
	UpdatedAt time.Time  `json:"updated_at"`
	IsActive  bool       `json:"is_active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ChangeAction is the kind of product mutation recorded in the change journal.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
)

// PendingProductChange is one not-yet-confirmed product mutation intent.
// ProductData is a full value snapshot taken at mutation time; it must
// survive even if the product row is changed again afterwards.
type PendingProductChange struct {
	ID          int64        `json:"id"`
	Barcode     string       `json:"barcode"`
	Action      ChangeAction `json:"action"`
	ProductData Product      `json:"product_data"`
	CreatedAt   time.Time    `json:"created_at"`
	Synced      bool         `json:"synced"`
}
