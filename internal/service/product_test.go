package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungpos/warungpos/internal/apperr"
	"github.com/warungpos/warungpos/internal/model"
	"github.com/warungpos/warungpos/internal/store"
	"github.com/warungpos/warungpos/pkg/ptr"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type stubRemote struct {
	mu          sync.Mutex
	products    map[string]model.Product
	upserts     int
	softDeletes int
	fail        bool
}

func newStubRemote() *stubRemote {
	return &stubRemote{products: make(map[string]model.Product)}
}

func (r *stubRemote) UpsertProduct(_ context.Context, p model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("remote unavailable")
	}
	r.upserts++
	r.products[p.Barcode] = p
	return nil
}

func (r *stubRemote) SoftDeleteProduct(_ context.Context, barcode string, deletedAt, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("remote unavailable")
	}
	r.softDeletes++
	p := r.products[barcode]
	p.Barcode = barcode
	p.IsActive = false
	p.DeletedAt = &deletedAt
	p.UpdatedAt = updatedAt
	r.products[barcode] = p
	return nil
}

func (r *stubRemote) ListProducts(context.Context) ([]model.Product, error) { return nil, nil }

func (r *stubRemote) InsertSale(context.Context, int64, time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *stubRemote) InsertSaleItems(context.Context, int64, []model.SaleItem) error {
	return errors.New("not implemented")
}

func (r *stubRemote) Ping(context.Context) error { return nil }

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testProductService(t *testing.T, local *store.Store, remote *stubRemote, online bool) ProductService {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return NewProductService(logger, local, remote, func() bool { return online }, func() time.Time { return testNow })
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	params := CreateProductParams{Barcode: "8991002100015", Name: "Instant Noodles", Price: 3500, Stock: 10}

	t.Run("Offline create journals the intent and touches no network", func(t *testing.T) {
		local := testStore(t)
		remote := newStubRemote()
		svc := testProductService(t, local, remote, false)

		product, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, testNow, product.UpdatedAt)
		assert.True(t, product.IsActive)

		got, err := local.GetProduct(ctx, params.Barcode)
		require.NoError(t, err)
		assert.Equal(t, product, got)

		changes, _, err := local.CountUnsynced(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changes)
		assert.Zero(t, remote.upserts)
	})

	t.Run("Online create flushes immediately and confirms the change", func(t *testing.T) {
		local := testStore(t)
		remote := newStubRemote()
		svc := testProductService(t, local, remote, true)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, 1, remote.upserts)
		assert.Equal(t, "Instant Noodles", remote.products[params.Barcode].Name)

		changes, _, err := local.CountUnsynced(ctx)
		require.NoError(t, err)
		assert.Zero(t, changes)
	})

	t.Run("A failed flush leaves the change journaled and the create succeeds", func(t *testing.T) {
		local := testStore(t)
		remote := newStubRemote()
		remote.fail = true
		svc := testProductService(t, local, remote, true)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)

		changes, _, err := local.CountUnsynced(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changes)
	})

	t.Run("A duplicate barcode is rejected", func(t *testing.T) {
		local := testStore(t)
		svc := testProductService(t, local, newStubRemote(), false)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)

		_, err = svc.CreateProduct(ctx, params)
		assert.ErrorIs(t, err, apperr.ProductExistsErr)
	})

	t.Run("A tombstoned barcode is still a duplicate", func(t *testing.T) {
		local := testStore(t)
		svc := testProductService(t, local, newStubRemote(), false)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteProduct(ctx, params.Barcode))

		_, err = svc.CreateProduct(ctx, params)
		assert.ErrorIs(t, err, apperr.ProductExistsErr)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	params := CreateProductParams{Barcode: "A", Name: "Instant Noodles", Price: 3500, Stock: 10}

	t.Run("Unknown barcode fails", func(t *testing.T) {
		svc := testProductService(t, testStore(t), newStubRemote(), false)
		_, err := svc.UpdateProduct(ctx, "nope", UpdateProductParams{Name: ptr.New("x")})
		assert.ErrorIs(t, err, apperr.ProductNotFoundErr)
	})

	t.Run("Only the given fields change and the edit is journaled", func(t *testing.T) {
		local := testStore(t)
		svc := testProductService(t, local, newStubRemote(), false)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)

		updated, err := svc.UpdateProduct(ctx, "A", UpdateProductParams{Price: ptr.New(int64(4000))})
		require.NoError(t, err)
		assert.Equal(t, int64(4000), updated.Price)
		assert.Equal(t, "Instant Noodles", updated.Name)
		assert.Equal(t, int64(10), updated.Stock)

		changes, err := local.ListUnsyncedChanges(ctx)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, model.ActionUpdate, changes[1].Action)
		assert.Equal(t, int64(4000), changes[1].ProductData.Price)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	params := CreateProductParams{Barcode: "A", Name: "Instant Noodles", Price: 3500, Stock: 10}

	t.Run("Unknown barcode fails", func(t *testing.T) {
		svc := testProductService(t, testStore(t), newStubRemote(), false)
		assert.ErrorIs(t, svc.DeleteProduct(ctx, "nope"), apperr.ProductNotFoundErr)
	})

	t.Run("Delete tombstones the row and journals the intent", func(t *testing.T) {
		local := testStore(t)
		svc := testProductService(t, local, newStubRemote(), false)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteProduct(ctx, "A"))

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		require.NotNil(t, got.DeletedAt)
		assert.Equal(t, testNow, *got.DeletedAt)

		changes, err := local.ListUnsyncedChanges(ctx)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, model.ActionDelete, changes[1].Action)
	})

	t.Run("Online delete flushes a soft delete", func(t *testing.T) {
		local := testStore(t)
		remote := newStubRemote()
		svc := testProductService(t, local, remote, true)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteProduct(ctx, "A"))

		assert.Equal(t, 1, remote.softDeletes)
		assert.False(t, remote.products["A"].IsActive)

		changes, _, err := local.CountUnsynced(ctx)
		require.NoError(t, err)
		assert.Zero(t, changes)
	})

	t.Run("Deleting an already inactive product is a no-op", func(t *testing.T) {
		local := testStore(t)
		svc := testProductService(t, local, newStubRemote(), false)

		_, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteProduct(ctx, "A"))
		require.NoError(t, svc.DeleteProduct(ctx, "A"))

		changes, _, err := local.CountUnsynced(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), changes, "create plus one delete, the second delete adds nothing")
	})
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()
	svc := testProductService(t, testStore(t), newStubRemote(), false)

	_, err := svc.GetProduct(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ProductNotFoundErr)
}
