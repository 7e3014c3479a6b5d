package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-fleet/models"
)

func TestGrid_PlacementRules(t *testing.T) {
	g := NewGrid(4, 4)

	require.NoError(t, g.AddShelf(pos(1, 1)))
	assert.ErrorIs(t, g.AddShelf(pos(1, 1)), models.ErrCellOccupied)
	assert.ErrorIs(t, g.AddShelf(pos(9, 9)), models.ErrOutOfBounds)
	assert.ErrorIs(t, g.AddNode(pos(1, 1), models.CellDock), models.ErrCellOccupied)
	assert.Error(t, g.AddNode(pos(0, 0), models.CellLane))

	require.NoError(t, g.AddNode(pos(0, 0), models.CellDock))
	assert.Equal(t, models.CellDock, g.CellType(pos(0, 0)))
	assert.Equal(t, []models.Position{pos(0, 0)}, g.Cells(models.CellDock))
}

func TestGrid_CreateLanes(t *testing.T) {
	g := NewGrid(3, 6)
	require.NoError(t, g.AddShelf(pos(1, 4)))
	require.NoError(t, g.CreateLanes([]int{1}, true))
	require.NoError(t, g.CreateLanes([]int{2}, false))

	assert.Equal(t, models.CellLaneBackward, g.CellType(pos(1, 0)))
	assert.Equal(t, models.CellLaneBackward, g.CellType(pos(1, 2)))
	assert.Equal(t, models.CellLaneForward, g.CellType(pos(1, 3)))
	assert.Equal(t, models.CellShelf, g.CellType(pos(1, 4)), "occupied cells keep their kind")
	assert.Equal(t, models.CellLane, g.CellType(pos(2, 5)))

	assert.ErrorIs(t, g.CreateLanes([]int{7}, true), models.ErrOutOfBounds)
}

func TestGrid_Neighbors(t *testing.T) {
	g := NewGrid(3, 3)

	assert.Equal(t, []models.Position{pos(1, 2), pos(2, 1), pos(1, 0), pos(0, 1)}, g.Neighbors(pos(1, 1)))
	assert.Equal(t, []models.Position{pos(0, 1), pos(1, 0)}, g.Neighbors(pos(0, 0)))
}

func TestGrid_OutOfBoundsIsBlocked(t *testing.T) {
	g := NewGrid(2, 2)

	assert.False(t, g.IsTraversable(pos(-1, 0)))
	assert.Equal(t, models.CellShelf, g.CellType(pos(2, 0)))
}

func TestGrid_Render(t *testing.T) {
	g := NewGrid(2, 3)
	require.NoError(t, g.AddNode(pos(0, 0), models.CellDock))
	require.NoError(t, g.AddShelf(pos(1, 2)))

	assert.Equal(t, "D . .\n. . S\n", g.Render())
}
