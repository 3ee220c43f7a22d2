package apperr

import "github.com/warungpos/warungpos/pkg/zerror"

const (
	ValidationErrorCode = "VALIDATION_FAILED"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductNotFoundErr = zerror.NewNotFound("PRODUCT_NOT_FOUND", "product not found")
	ProductExistsErr   = zerror.NewConflict("PRODUCT_ALREADY_EXISTS", "a product with this barcode already exists")
	SaleNotFoundErr    = zerror.NewNotFound("SALE_NOT_FOUND", "sale not found")
	CartEmptyErr       = zerror.NewUnprocessableEntity("CART_EMPTY", "cart has no items")
)
