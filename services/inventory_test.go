package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-fleet/models"
)

func newTestInventory(t *testing.T) *Inventory {
	t.Helper()
	inv := NewInventory()
	require.NoError(t, inv.AddShelf("A", pos(2, 2), 10))
	require.NoError(t, inv.AddShelf("B", pos(2, 6), 0))
	return inv
}

func TestInventory_AddItem(t *testing.T) {
	inv := newTestInventory(t)

	require.NoError(t, inv.AddItem(Item{SKU: "ITEM001", Name: "Widget", Category: "parts", ShelfID: "A", Quantity: 4}))
	assert.ErrorIs(t, inv.AddItem(Item{SKU: "ITEM001", ShelfID: "A"}), models.ErrDuplicateSKU)
	assert.ErrorIs(t, inv.AddItem(Item{SKU: "ITEM002", ShelfID: "Z"}), models.ErrUnknownShelf)
	assert.ErrorIs(t, inv.AddItem(Item{SKU: "ITEM003", ShelfID: "A", Quantity: 7}), models.ErrShelfFull)
	assert.ErrorIs(t, inv.AddShelf("A", pos(0, 0), 1), models.ErrCellOccupied)

	shelfID, p, ok := inv.ShelfForSKU("ITEM001")
	require.True(t, ok)
	assert.Equal(t, "A", shelfID)
	assert.Equal(t, pos(2, 2), p)

	_, _, ok = inv.ShelfForSKU("ITEM999")
	assert.False(t, ok)

	shelves := inv.Shelves()
	require.Len(t, shelves, 2)
	assert.Equal(t, 4, shelves[0].Load)
}

func TestInventory_MoveAndRemove(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddItem(Item{SKU: "ITEM002", Name: "Gadget", Category: "tools", ShelfID: "A", Quantity: 3}))
	require.NoError(t, inv.AddItem(Item{SKU: "ITEM001", Name: "Widget", Category: "parts", ShelfID: "A", Quantity: 2}))

	onA := inv.ItemsOnShelf("A")
	require.Len(t, onA, 2)
	assert.Equal(t, "ITEM001", onA[0].SKU)

	require.NoError(t, inv.MoveItem("ITEM002", "B"))
	shelfID, p, _ := inv.ShelfForSKU("ITEM002")
	assert.Equal(t, "B", shelfID)
	assert.Equal(t, pos(2, 6), p)
	assert.Len(t, inv.ItemsOnShelf("A"), 1)
	assert.ErrorIs(t, inv.MoveItem("ITEM002", "Z"), models.ErrUnknownShelf)
	assert.ErrorIs(t, inv.MoveItem("nope", "A"), models.ErrUnknownSKU)

	removed, err := inv.RemoveItem("ITEM001")
	require.NoError(t, err)
	assert.Equal(t, "Widget", removed.Name)
	_, err = inv.RemoveItem("ITEM001")
	assert.ErrorIs(t, err, models.ErrUnknownSKU)

	assert.Empty(t, inv.ItemsOnShelf("A"))
	assert.Zero(t, inv.Shelves()[0].Load)
	assert.Len(t, inv.Items(), 1)
}
