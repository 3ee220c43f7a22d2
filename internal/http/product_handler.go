package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warungpos/warungpos/internal/service"
)

type createProductRequest struct {
	Barcode string `json:"barcode" validate:"required,barcode"`
	Name    string `json:"name" validate:"required,max=200"`
	Price   int64  `json:"price" validate:"gte=0"`
	Stock   int64  `json:"stock"`
}

type updateProductRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=200"`
	Price *int64  `json:"price" validate:"omitempty,gte=0"`
	Stock *int64  `json:"stock"`
}

func (s *Service) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("low_stock"); raw != "" {
		threshold, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			threshold = 0
		}
		products, err := s.productSvc.ListLowStock(r.Context(), threshold)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, products)
		return
	}

	includeDeleted := r.URL.Query().Get("include_deleted") == "1"
	products, err := s.productSvc.ListProducts(r.Context(), includeDeleted)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *Service) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	product, err := s.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Barcode: req.Barcode,
		Name:    req.Name,
		Price:   req.Price,
		Stock:   req.Stock,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, product)
}

func (s *Service) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.productSvc.GetProduct(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Service) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	product, err := s.productSvc.UpdateProduct(r.Context(), chi.URLParam(r, "barcode"), service.UpdateProductParams{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Service) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.productSvc.DeleteProduct(r.Context(), chi.URLParam(r, "barcode")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
