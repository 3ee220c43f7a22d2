package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungpos/warungpos/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testProduct(barcode string) model.Product {
	return model.Product{
		Barcode:   barcode,
		Name:      "Instant Noodles",
		Price:     3500,
		Stock:     10,
		UpdatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

func TestOpen(t *testing.T) {
	s := testStore(t)

	t.Run("Should survive reopen with data intact", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.PutProduct(ctx, testProduct("8991002100015")))

		path := s.path
		require.NoError(t, s.Close())

		reopened, err := Open(path)
		require.NoError(t, err)
		defer reopened.Close()

		p, err := reopened.GetProduct(ctx, "8991002100015")
		require.NoError(t, err)
		assert.Equal(t, "Instant Noodles", p.Name)
	})
}

func TestPing(t *testing.T) {
	s := testStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestSubscribe(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var productEvents, saleEvents int
	s.Subscribe(TableProducts, func() { productEvents++ })
	s.Subscribe(TablePendingSales, func() { saleEvents++ })

	require.NoError(t, s.PutProduct(ctx, testProduct("A")))
	assert.Equal(t, 1, productEvents)
	assert.Equal(t, 0, saleEvents)

	sale := model.PendingSale{
		LocalSaleID: "sale-1",
		Items: []model.SaleItem{
			{ProductBarcode: "A", Quantity: 1, PriceEach: 3500, Subtotal: 3500},
		},
		TotalAmount: 3500,
		PaidAt:      time.Now().UTC(),
	}
	require.NoError(t, s.CommitSale(ctx, sale))

	// CommitSale touches both the sale journal and product stock.
	assert.Equal(t, 1, saleEvents)
	assert.Equal(t, 2, productEvents)
}
