package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungpos/warungpos/internal/model"
	"github.com/warungpos/warungpos/internal/store"
)

func testLocalStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func productAt(barcode, name string, updatedAt time.Time) model.Product {
	return model.Product{
		Barcode:   barcode,
		Name:      name,
		Price:     2000,
		Stock:     5,
		UpdatedAt: updatedAt,
		IsActive:  true,
	}
}

func TestReconcilerMerge(t *testing.T) {
	ctx := context.Background()
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("Should adopt a barcode absent locally", func(t *testing.T) {
		local := testLocalStore(t)
		r := NewReconciler(LastWriterWins, local)

		adopted, err := r.Merge(ctx, productAt("A", "Remote", t1))
		require.NoError(t, err)
		assert.True(t, adopted)

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Remote", got.Name)
	})

	t.Run("Should adopt a strictly newer remote record", func(t *testing.T) {
		local := testLocalStore(t)
		r := NewReconciler(LastWriterWins, local)
		require.NoError(t, local.PutProduct(ctx, productAt("A", "Local", t1)))

		adopted, err := r.Merge(ctx, productAt("A", "Remote", t2))
		require.NoError(t, err)
		assert.True(t, adopted)

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Remote", got.Name)
	})

	t.Run("Should keep the local record when remote is older", func(t *testing.T) {
		local := testLocalStore(t)
		r := NewReconciler(LastWriterWins, local)
		require.NoError(t, local.PutProduct(ctx, productAt("A", "Local", t2)))

		adopted, err := r.Merge(ctx, productAt("A", "Remote", t1))
		require.NoError(t, err)
		assert.False(t, adopted)

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Local", got.Name)
	})

	t.Run("Should keep the local record on an equal timestamp", func(t *testing.T) {
		local := testLocalStore(t)
		r := NewReconciler(LastWriterWins, local)
		require.NoError(t, local.PutProduct(ctx, productAt("A", "Local", t1)))

		adopted, err := r.Merge(ctx, productAt("A", "Remote", t1))
		require.NoError(t, err)
		assert.False(t, adopted)

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Local", got.Name)
	})

	t.Run("Pending local change wins even over a newer remote record", func(t *testing.T) {
		local := testLocalStore(t)
		r := NewReconciler(LastWriterWins, local)

		p := productAt("A", "Local", t1)
		require.NoError(t, local.PutProduct(ctx, p))
		_, err := local.AppendChange(ctx, model.PendingProductChange{
			Barcode:     "A",
			Action:      model.ActionUpdate,
			ProductData: p,
			CreatedAt:   t1,
		})
		require.NoError(t, err)

		adopted, err := r.Merge(ctx, productAt("A", "Remote", t2))
		require.NoError(t, err)
		assert.False(t, adopted)

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "Local", got.Name)
	})

	t.Run("Should adopt a remote tombstone over an older active record", func(t *testing.T) {
		local := testLocalStore(t)
		r := NewReconciler(LastWriterWins, local)
		require.NoError(t, local.PutProduct(ctx, productAt("A", "Local", t1)))

		tombstone := productAt("A", "Local", t2)
		tombstone.IsActive = false
		tombstone.DeletedAt = &t2

		adopted, err := r.Merge(ctx, tombstone)
		require.NoError(t, err)
		assert.True(t, adopted)

		got, err := local.GetProduct(ctx, "A")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		require.NotNil(t, got.DeletedAt)
		assert.Equal(t, t2, *got.DeletedAt)
	})
}
