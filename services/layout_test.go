package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-fleet/models"
)

const smallLayout = `
name: small
rows: 5
cols: 5
lanes:
  rows: [4]
shelves:
  - id: S1
    position: {row: 2, col: 3}
    capacity: 10
nodes:
  - kind: dock
    position: {row: 0, col: 0}
fleet:
  robots:
    - name: alpha
      start: {row: 0, col: 0}
      speed: 1.5
items:
  - sku: X
    name: Widget
    category: parts
    shelf: S1
    quantity: 2
`

func TestDefaultLayout(t *testing.T) {
	w := DefaultLayout()

	rows := w.Grid.RenderRows()
	require.Len(t, rows, 9)
	assert.Equal(t, ". D . . . . . D .", rows[0])
	assert.Equal(t, ". . S . . . S . .", rows[2])
	assert.Equal(t, "← ← ← ← → → → → →", rows[3])
	assert.Equal(t, ". . . . P . . . .", rows[4])
	assert.Equal(t, ". . . . T . . . .", rows[8])

	assert.Equal(t, []models.Position{{Row: 0, Col: 1}, {Row: 0, Col: 7}}, w.Docks)
	assert.Equal(t, models.Position{Row: 0, Col: 1}, w.Fleet.Dock)
	require.Len(t, w.Fleet.Agents, 3)
	for _, a := range w.Fleet.Agents {
		assert.Equal(t, w.Fleet.Dock, a.Start)
		assert.Equal(t, 1.0, a.Speed)
	}

	shelfID, p, ok := w.Inventory.ShelfForSKU("ITEM003")
	require.True(t, ok)
	assert.Equal(t, "B", shelfID)
	assert.Equal(t, models.Position{Row: 2, Col: 6}, p)
	assert.Len(t, w.Inventory.Shelves(), 8)
}

func TestDefaultLayout_EverySKUIsServed(t *testing.T) {
	w := DefaultLayout()
	fleet, err := NewFleetCoordinator(w.Fleet, w.Grid, w.Inventory)
	require.NoError(t, err)

	for _, item := range w.Inventory.Items() {
		_, err := fleet.RequestItem(item.SKU)
		require.NoError(t, err, item.SKU)
	}
	for i := 0; i < 200; i++ {
		require.NoError(t, fleet.Step(0.5))
	}
	for _, task := range fleet.Tasks() {
		assert.Equal(t, models.TaskCompleted, task.Status, "%s (%s)", task.SKU, task.FailureReason)
	}
}

func TestParseLayout(t *testing.T) {
	w, err := ParseLayout([]byte(smallLayout))
	require.NoError(t, err)

	assert.Equal(t, "small", w.Name)
	assert.Equal(t, models.CellShelf, w.Grid.CellType(models.Position{Row: 2, Col: 3}))
	assert.Equal(t, models.CellLane, w.Grid.CellType(models.Position{Row: 4, Col: 0}))
	require.Len(t, w.Fleet.Agents, 1)
	assert.Equal(t, "alpha", w.Fleet.Agents[0].Name)
	assert.Equal(t, 1.5, w.Fleet.Agents[0].Speed)

	item, ok := w.Inventory.Item("X")
	require.True(t, ok)
	assert.Equal(t, "S1", item.ShelfID)
}

func TestLoadLayout_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallLayout), 0o644))

	w, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Grid.Rows)

	_, err = LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLayout_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		is   error
	}{
		{
			name: "unknown field",
			yaml: "rows: 3\ncols: 3\ncolour: red\n",
		},
		{
			name: "zero size",
			yaml: "rows: 0\ncols: 3\n",
		},
		{
			name: "bad node kind",
			yaml: "rows: 3\ncols: 3\nnodes:\n  - kind: shelf\n    position: {row: 0, col: 0}\n",
		},
		{
			name: "shelf out of bounds",
			yaml: "rows: 3\ncols: 3\nshelves:\n  - id: A\n    position: {row: 5, col: 0}\n",
			is:   models.ErrOutOfBounds,
		},
		{
			name: "item on unknown shelf",
			yaml: "rows: 3\ncols: 3\nitems:\n  - {sku: X, name: n, category: c, shelf: Z, quantity: 1}\n",
			is:   models.ErrUnknownShelf,
		},
		{
			name: "no free cell for a dock",
			yaml: "rows: 1\ncols: 1\nshelves:\n  - id: A\n    position: {row: 0, col: 0}\n",
			is:   models.ErrNoDock,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tt.yaml))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParseLayout_FallsBackToFirstOpenCell(t *testing.T) {
	w, err := ParseLayout([]byte("rows: 2\ncols: 2\nshelves:\n  - id: A\n    position: {row: 0, col: 0}\n"))
	require.NoError(t, err)
	assert.Equal(t, models.Position{Row: 0, Col: 1}, w.Fleet.Dock)
	assert.Empty(t, w.Docks)
}

func TestSampleLayoutFileMatchesDefault(t *testing.T) {
	w, err := LoadLayout("../layouts/default.yaml")
	require.NoError(t, err)

	def := DefaultLayout()
	assert.Equal(t, def.Grid.RenderRows(), w.Grid.RenderRows())
	assert.Equal(t, def.Fleet, w.Fleet)
	assert.Equal(t, def.Inventory.Items(), w.Inventory.Items())
}
