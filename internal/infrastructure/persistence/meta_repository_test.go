package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

func TestGormMetaRepository_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the full meta set", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormMetaRepository(db)

		require.NoError(t, repo.Replace(ctx, 500, map[string]string{
			"_sku":   "WIDGET-1",
			"_price": "19.99",
		}))

		bags, err := repo.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"_sku": "WIDGET-1", "_price": "19.99"}, bags[500])
	})

	t.Run("replacing twice leaves identical rows", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormMetaRepository(db)
		meta := map[string]string{"_sku": "WIDGET-1", "_price": "19.99"}

		require.NoError(t, repo.Replace(ctx, 500, meta))
		require.NoError(t, repo.Replace(ctx, 500, meta))

		var count int64
		require.NoError(t, db.Model(&models.ItemMetaModel{}).Where("item_id = ?", 500).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("drops keys absent from the new snapshot", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormMetaRepository(db)

		require.NoError(t, repo.Replace(ctx, 500, map[string]string{
			"_sku": "WIDGET-1", "_price": "19.99", "_sale_price": "9.99",
		}))
		require.NoError(t, repo.Replace(ctx, 500, map[string]string{
			"_sku": "WIDGET-1", "_price": "19.99",
		}))

		bags, err := repo.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.NotContains(t, bags[500], "_sale_price")
		assert.Len(t, bags[500], 2)
	})

	t.Run("updates values in place without duplicates", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormMetaRepository(db)

		require.NoError(t, repo.Replace(ctx, 500, map[string]string{"_price": "10"}))
		require.NoError(t, repo.Replace(ctx, 500, map[string]string{"_price": "12"}))

		var rows []models.ItemMetaModel
		require.NoError(t, db.Where("item_id = ? AND meta_key = ?", 500, "_price").Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "12", rows[0].Value)
	})

	t.Run("does not touch other items", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormMetaRepository(db)

		require.NoError(t, repo.Replace(ctx, 500, map[string]string{"_sku": "A"}))
		require.NoError(t, repo.Replace(ctx, 501, map[string]string{"_sku": "B"}))
		require.NoError(t, repo.Replace(ctx, 500, map[string]string{"_sku": "A2"}))

		bags, err := repo.FindByItemIDs(ctx, []int64{500, 501})
		require.NoError(t, err)
		assert.Equal(t, "A2", bags[500]["_sku"])
		assert.Equal(t, "B", bags[501]["_sku"])
	})

	t.Run("empty meta clears the item", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormMetaRepository(db)

		require.NoError(t, repo.Replace(ctx, 500, map[string]string{"_sku": "A"}))
		require.NoError(t, repo.Replace(ctx, 500, nil))

		bags, err := repo.FindByItemIDs(ctx, []int64{500})
		require.NoError(t, err)
		assert.Empty(t, bags[500])
	})
}

func TestGormMetaRepository_ValuesByItemIDs(t *testing.T) {
	ctx := context.Background()

	db := newTestDB(t)
	repo := NewGormMetaRepository(db)

	require.NoError(t, repo.Replace(ctx, 500, map[string]string{"_sku": "A", "_price": "1"}))
	require.NoError(t, repo.Replace(ctx, 501, map[string]string{"_sku": "B"}))

	values, err := repo.ValuesByItemIDs(ctx, "_sku", []int64{500, 501, 999})
	require.NoError(t, err)

	assert.Equal(t, map[int64]string{500: "A", 501: "B"}, values)
}
