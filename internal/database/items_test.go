package database

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createItem(t *testing.T, db *DB, ownerID int64, name, description string, available bool) *models.Item {
	t.Helper()
	it := &models.Item{Name: name, Description: description, Available: available, OwnerID: ownerID}
	require.NoError(t, db.CreateItem(context.Background(), it))
	return it
}

func TestItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")
	drill := createItem(t, db, owner.ID, "Drill", "Cordless drill", true)
	saw := createItem(t, db, owner.ID, "Saw", "Hand saw", false)
	createItem(t, db, owner.ID, "Screwdriver", "Works like a DRILL", true)

	t.Run("GetByID", func(t *testing.T) {
		got, err := db.GetItemByID(ctx, drill.ID)
		require.NoError(t, err)
		assert.Equal(t, "Drill", got.Name)
		assert.True(t, got.Available)
		assert.Equal(t, owner.ID, got.OwnerID)
		assert.Zero(t, got.RequestID)

		_, err = db.GetItemByID(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("UnknownOwner", func(t *testing.T) {
		err := db.CreateItem(ctx, &models.Item{Name: "x", Description: "y", OwnerID: 9999})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		upd := *saw
		upd.Available = true
		upd.Description = "Sharp hand saw"
		require.NoError(t, db.UpdateItem(ctx, &upd))

		got, err := db.GetItemByID(ctx, saw.ID)
		require.NoError(t, err)
		assert.True(t, got.Available)
		assert.Equal(t, "Sharp hand saw", got.Description)

		upd.Available = false
		require.NoError(t, db.UpdateItem(ctx, &upd))

		assert.ErrorIs(t, db.UpdateItem(ctx, &models.Item{ID: 9999, Name: "x"}), domain.ErrItemNotFound)
	})

	t.Run("ByOwnerPaged", func(t *testing.T) {
		items, err := db.GetItemsByOwner(ctx, owner.ID, models.Page{From: 0, Size: 2})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, drill.ID, items[0].ID)
		assert.Equal(t, saw.ID, items[1].ID)

		items, err = db.GetItemsByOwner(ctx, owner.ID, models.Page{From: 3, Size: 2})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("Search", func(t *testing.T) {
		items, err := db.SearchItems(ctx, "dRiLl", models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = db.SearchItems(ctx, "saw", models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, items)

		items, err = db.SearchItems(ctx, "%", models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ByRequests", func(t *testing.T) {
		req := &models.ItemRequest{Description: "need a ladder", RequesterID: owner.ID}
		require.NoError(t, db.CreateRequest(ctx, req))

		other := createUser(t, db, "Other", "other@example.com")
		ladder := &models.Item{Name: "Ladder", Description: "3m", Available: true, OwnerID: other.ID, RequestID: req.ID}
		require.NoError(t, db.CreateItem(ctx, ladder))

		items, err := db.GetItemsByRequests(ctx, []int64{req.ID, 9999})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, req.ID, items[0].RequestID)

		items, err = db.GetItemsByRequests(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
