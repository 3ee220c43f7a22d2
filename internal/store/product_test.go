package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungpos/warungpos/pkg/ptr"
)

func TestGetProduct(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	t.Run("Should return ErrNotFound for unknown barcode", func(t *testing.T) {
		_, err := s.GetProduct(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should round-trip all fields", func(t *testing.T) {
		deletedAt := time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)
		p := testProduct("X1")
		p.IsActive = false
		p.DeletedAt = &deletedAt
		require.NoError(t, s.PutProduct(ctx, p))

		got, err := s.GetProduct(ctx, "X1")
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})
}

func TestPutProduct(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutProduct(ctx, testProduct("X1")))

	updated := testProduct("X1")
	updated.Name = "Instant Noodles XL"
	updated.Price = 4000
	require.NoError(t, s.PutProduct(ctx, updated))

	got, err := s.GetProduct(ctx, "X1")
	require.NoError(t, err)
	assert.Equal(t, "Instant Noodles XL", got.Name)
	assert.Equal(t, int64(4000), got.Price)
}

func TestUpdateProduct(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	t.Run("Should fail with ErrNotFound for unknown barcode", func(t *testing.T) {
		err := s.UpdateProduct(ctx, "nope", ProductPatch{Name: ptr.New("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should merge only the given fields", func(t *testing.T) {
		require.NoError(t, s.PutProduct(ctx, testProduct("X2")))

		err := s.UpdateProduct(ctx, "X2", ProductPatch{Price: ptr.New(int64(9000))})
		require.NoError(t, err)

		got, err := s.GetProduct(ctx, "X2")
		require.NoError(t, err)
		assert.Equal(t, int64(9000), got.Price)
		assert.Equal(t, "Instant Noodles", got.Name)
		assert.Equal(t, int64(10), got.Stock)
	})
}

func TestListProducts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	active := testProduct("A")
	active.Name = "Active"
	require.NoError(t, s.PutProduct(ctx, active))

	deletedAt := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	deleted := testProduct("B")
	deleted.Name = "Deleted"
	deleted.IsActive = false
	deleted.DeletedAt = &deletedAt
	require.NoError(t, s.PutProduct(ctx, deleted))

	t.Run("Should exclude tombstones by default", func(t *testing.T) {
		products, err := s.ListProducts(ctx, false)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "A", products[0].Barcode)
	})

	t.Run("Should include tombstones on request", func(t *testing.T) {
		products, err := s.ListProducts(ctx, true)
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("Tombstone stays retrievable by barcode", func(t *testing.T) {
		got, err := s.GetProduct(ctx, "B")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		require.NotNil(t, got.DeletedAt)
		assert.Equal(t, deletedAt, *got.DeletedAt)
	})
}

func TestListLowStock(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	low := testProduct("L")
	low.Stock = 2
	require.NoError(t, s.PutProduct(ctx, low))

	high := testProduct("H")
	high.Stock = 50
	require.NoError(t, s.PutProduct(ctx, high))

	products, err := s.ListLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "L", products[0].Barcode)
}
