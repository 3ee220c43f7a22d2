// Package http exposes the terminal's local API consumed by the UI layer.
// The caller is assumed to be authorized already; no auth logic lives here.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warungpos/warungpos/internal/config"
	"github.com/warungpos/warungpos/internal/connectivity"
	"github.com/warungpos/warungpos/internal/http/apierr"
	"github.com/warungpos/warungpos/internal/http/middleware"
	"github.com/warungpos/warungpos/internal/service"
	"github.com/warungpos/warungpos/internal/sync"
	"github.com/warungpos/warungpos/pkg/validator"
	"github.com/warungpos/warungpos/pkg/zerror"
)

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	logger    *slog.Logger
	validator validator.Validator

	productSvc  service.ProductService
	checkoutSvc service.CheckoutService
	orch        *sync.Orchestrator
	monitor     *connectivity.Monitor
	localHealth func(ctx context.Context) error
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	v validator.Validator,
	productSvc service.ProductService,
	checkoutSvc service.CheckoutService,
	orch *sync.Orchestrator,
	monitor *connectivity.Monitor,
	localHealth func(ctx context.Context) error,
) *Service {
	return &Service{
		cfg:         cfg,
		logger:      log.With(slog.String("service", "http")),
		validator:   v,
		productSvc:  productSvc,
		checkoutSvc: checkoutSvc,
		orch:        orch,
		monitor:     monitor,
		localHealth: localHealth,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)
	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Cors(),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Post("/", s.handleCreateProduct)
			r.Get("/{barcode}", s.handleGetProduct)
			r.Patch("/{barcode}", s.handleUpdateProduct)
			r.Delete("/{barcode}", s.handleDeleteProduct)
		})

		r.Post("/checkout", s.handleCheckout)
		r.Get("/sales/{localSaleID}/receipt", s.handleReceipt)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", s.handleTriggerSync)
			r.Post("/foreground", s.handleForeground)
			r.Get("/status", s.handleSyncStatus)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.localHealth(r.Context()); err != nil {
		s.writeError(w, r, fmt.Errorf("local store unhealthy: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", slog.Any("error", err))
	}
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)
	if res.StatusCode >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request error", slog.Any("error", err))
	}
	s.writeJSON(w, res.StatusCode, res)
}

func (s *Service) decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return zerror.NewBadRequest("INVALID_BODY", "request body is not valid JSON").WrapParent(err)
	}
	return s.validator.Validate(v)
}
