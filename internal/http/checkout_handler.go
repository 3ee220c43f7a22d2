package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warungpos/warungpos/internal/service"
)

type checkoutRequest struct {
	Items []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

type checkoutItem struct {
	Barcode   string `json:"barcode" validate:"required,barcode"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	PriceEach int64  `json:"price_each" validate:"gte=0"`
}

func (s *Service) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cart := make([]service.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		cart = append(cart, service.CartItem{
			Barcode:   item.Barcode,
			Quantity:  item.Quantity,
			PriceEach: item.PriceEach,
		})
	}

	sale, err := s.checkoutSvc.Checkout(r.Context(), cart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sale)
}

func (s *Service) handleReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.checkoutSvc.Receipt(r.Context(), chi.URLParam(r, "localSaleID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, receipt)
}
