package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermits(t *testing.T) {
	tests := []struct {
		kind CellKind
		dir  Direction
		want bool
	}{
		{CellFree, West, true},
		{CellLane, West, true},
		{CellLaneForward, East, true},
		{CellLaneForward, West, false},
		{CellLaneForward, North, true},
		{CellLaneBackward, West, true},
		{CellLaneBackward, East, false},
		{CellLaneBackward, South, true},
		{CellDock, North, true},
		{CellKind("lava"), North, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Permits(tt.kind, tt.dir), "%s/%s", tt.kind, tt.dir)
	}
}

func TestCellKind_Traversable(t *testing.T) {
	assert.False(t, CellShelf.Traversable())
	for _, k := range []CellKind{CellFree, CellLane, CellLaneForward, CellLaneBackward, CellDock, CellPacking, CellTruckBay} {
		assert.True(t, k.Traversable(), k)
	}
	assert.True(t, CellLaneForward.Directional())
	assert.False(t, CellLane.Directional())
}

func TestDirectionBetween(t *testing.T) {
	origin := Position{Row: 2, Col: 2}
	for _, d := range []Direction{North, East, South, West} {
		got, ok := DirectionBetween(origin, origin.Step(d))
		assert.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := DirectionBetween(origin, Position{Row: 3, Col: 3})
	assert.False(t, ok)
	_, ok = DirectionBetween(origin, origin)
	assert.False(t, ok)
}

func TestDirectionSet_String(t *testing.T) {
	assert.Equal(t, "any", AnyDirection.String())
	assert.Equal(t, "north|east|south", CellLaneForward.AllowedDirections().String())
}

func TestTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskPending, TaskInProgress, true},
		{TaskPending, TaskCompleted, false},
		{TaskPending, TaskFailed, false},
		{TaskInProgress, TaskCompleted, true},
		{TaskInProgress, TaskFailed, true},
		{TaskInProgress, TaskPending, false},
		{TaskCompleted, TaskFailed, false},
		{TaskFailed, TaskInProgress, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTask_CloneDetachesCompletedAt(t *testing.T) {
	at := 4.0
	orig := Task{ID: "t", CompletedAt: &at}
	clone := orig.Clone()
	*clone.CompletedAt = 9

	assert.Equal(t, 4.0, *orig.CompletedAt)
}
