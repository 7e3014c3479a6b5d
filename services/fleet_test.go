package services

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"warehouse-fleet/algorithms"
	"warehouse-fleet/models"
)

// newScenarioFleet builds a 5x5 floor whose only open side of shelf S1 is
// (2,2), with the dock at (0,0) and one robot per speed.
func newScenarioFleet(t *testing.T, speeds ...float64) (*FleetCoordinator, *Inventory) {
	t.Helper()

	grid := algorithms.NewGrid(5, 5)
	require.NoError(t, grid.AddShelf(pos(2, 3)))
	require.NoError(t, grid.AddShelf(pos(1, 3)))
	require.NoError(t, grid.AddShelf(pos(4, 4)))
	require.NoError(t, grid.AddShelf(pos(3, 4)))
	require.NoError(t, grid.AddShelf(pos(4, 3)))

	inv := NewInventory()
	require.NoError(t, inv.AddShelf("S1", pos(2, 3), 0))
	require.NoError(t, inv.AddShelf("S2", pos(4, 4), 0))
	require.NoError(t, inv.AddItem(Item{SKU: "X", Name: "Widget", Category: "parts", ShelfID: "S1", Quantity: 1}))
	require.NoError(t, inv.AddItem(Item{SKU: "Y", Name: "Gadget", Category: "parts", ShelfID: "S2", Quantity: 1}))

	cfg := FleetConfig{Dock: pos(0, 0)}
	for _, s := range speeds {
		cfg.Agents = append(cfg.Agents, AgentSpec{Start: pos(0, 0), Speed: s})
	}
	fleet, err := NewFleetCoordinator(cfg, grid, inv, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return fleet, inv
}

func TestNewFleetCoordinator_Validation(t *testing.T) {
	grid := algorithms.NewGrid(3, 3)
	inv := NewInventory()

	_, err := NewFleetCoordinator(FleetConfig{Dock: pos(0, 0)}, grid, inv)
	assert.ErrorIs(t, err, models.ErrNoAgents)

	_, err = NewFleetCoordinator(FleetConfig{
		Dock:   pos(9, 9),
		Agents: []AgentSpec{{Start: pos(0, 0), Speed: 1}},
	}, grid, inv)
	assert.ErrorIs(t, err, models.ErrOutOfBounds)

	_, err = NewFleetCoordinator(FleetConfig{
		Dock:   pos(0, 0),
		Agents: []AgentSpec{{Start: pos(0, 0), Speed: -1}},
	}, grid, inv)
	assert.Error(t, err)
}

func TestFleet_SingleRobotRoundTrip(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0)

	id, err := fleet.RequestItem("X")
	require.NoError(t, err)

	task, err := fleet.Task(id)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, pos(2, 2), task.Pickup)
	assert.Equal(t, pos(0, 0), task.Dropoff)
	assert.Equal(t, "S1", task.ShelfID)
	assert.Zero(t, task.CreatedAt)
	assert.Zero(t, fleet.Clock(), "requests never advance time")

	tick := 0
	step := func() {
		tick++
		require.NoError(t, fleet.Step(1.0))
	}

	step()
	task, _ = fleet.Task(id)
	assert.Equal(t, models.TaskInProgress, task.Status)

	for tick < 4 {
		step()
	}
	robot := fleet.Statuses()[0]
	assert.Equal(t, pos(2, 2), robot.Position, "arrives after manhattan distance ticks")
	assert.Equal(t, models.StatePicking, robot.State)

	step()
	robot = fleet.Statuses()[0]
	assert.Equal(t, models.StateMovingToDropoff, robot.State)
	assert.True(t, robot.Carrying)

	for tick < 8 {
		step()
		task, _ = fleet.Task(id)
		assert.Equal(t, models.TaskInProgress, task.Status)
	}
	step()

	robot = fleet.Statuses()[0]
	assert.Equal(t, pos(0, 0), robot.Position)
	assert.Equal(t, models.StateIdle, robot.State)
	assert.False(t, robot.Carrying)

	task, _ = fleet.Task(id)
	assert.Equal(t, models.TaskCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, 9.0, *task.CompletedAt)
}

func TestFleet_UnknownSKU(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0)

	id, err := fleet.RequestItem("missing")
	assert.Empty(t, id)
	assert.ErrorIs(t, err, models.ErrUnknownSKU)

	var assignErr *models.TaskAssignmentError
	require.True(t, errors.As(err, &assignErr))
	assert.Equal(t, "missing", assignErr.SKU)
	assert.Empty(t, fleet.Tasks())
}

func TestFleet_ShelfUnreachable(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0)
	_, err := fleet.RequestItem("X")
	require.NoError(t, err)

	_, err = fleet.RequestItem("Y")
	assert.ErrorIs(t, err, models.ErrShelfUnreachable)
	assert.Len(t, fleet.Tasks(), 1)
	assert.Equal(t, 1, fleet.Statuses()[0].QueueLength)
}

func TestFleet_BoxedInRobotStillAcceptsRequest(t *testing.T) {
	grid := algorithms.NewGrid(5, 5)
	require.NoError(t, grid.AddShelf(pos(0, 1)))
	require.NoError(t, grid.AddShelf(pos(1, 0)))
	require.NoError(t, grid.AddShelf(pos(3, 3)))

	inv := NewInventory()
	require.NoError(t, inv.AddShelf("S", pos(3, 3), 0))
	require.NoError(t, inv.AddItem(Item{SKU: "X", Name: "Widget", Category: "parts", ShelfID: "S", Quantity: 2}))

	fleet, err := NewFleetCoordinator(FleetConfig{
		Dock: pos(4, 0),
		Agents: []AgentSpec{
			{Start: pos(0, 0), Speed: 1}, // 선반에 갇힘
			{Start: pos(4, 0), Speed: 1},
		},
	}, grid, inv, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	first, err := fleet.RequestItem("X")
	require.NoError(t, err)
	second, err := fleet.RequestItem("X")
	require.NoError(t, err)

	boxed, err := fleet.Task(first)
	require.NoError(t, err)
	assert.Equal(t, 1, boxed.AgentID)
	assert.Equal(t, pos(3, 4), boxed.Pickup, "falls back to the first open side")

	open, err := fleet.Task(second)
	require.NoError(t, err)
	assert.Equal(t, 2, open.AgentID)
	assert.Equal(t, pos(4, 3), open.Pickup)

	for i := 0; i < 20; i++ {
		require.NoError(t, fleet.Step(1.0))
	}

	boxed, err = fleet.Task(first)
	require.NoError(t, err)
	assert.Equal(t, models.TaskFailed, boxed.Status)
	assert.NotEmpty(t, boxed.FailureReason)

	open, err = fleet.Task(second)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, open.Status)
}

func TestFleet_BalancesByLoad(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0, 1.0, 1.0)

	var assigned []int
	for i := 0; i < 7; i++ {
		id, err := fleet.RequestItem("X")
		require.NoError(t, err)
		task, err := fleet.Task(id)
		require.NoError(t, err)
		assigned = append(assigned, task.AgentID)
	}
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, assigned)

	robots := fleet.Statuses()
	loads := []int{robots[0].QueueLength, robots[1].QueueLength, robots[2].QueueLength}
	assert.Equal(t, []int{3, 2, 2}, loads)
}

func TestFleet_CurrentTaskCountsAsLoad(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0, 1.0)

	first, err := fleet.RequestItem("X")
	require.NoError(t, err)
	require.NoError(t, fleet.Step(1))

	second, err := fleet.RequestItem("X")
	require.NoError(t, err)

	t1, _ := fleet.Task(first)
	t2, _ := fleet.Task(second)
	assert.Equal(t, 1, t1.AgentID)
	assert.Equal(t, 2, t2.AgentID, "robot 1 is busy with its current task")
	assert.Equal(t, 1.0, t2.CreatedAt)
}

func TestFleet_StepRejectsInvalidDelta(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0)

	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, fleet.Step(dt), models.ErrInvalidDelta, "dt=%v", dt)
	}
	assert.Zero(t, fleet.Clock())
	assert.Zero(t, fleet.Tick())
}

func TestFleet_DeterministicReplay(t *testing.T) {
	run := func() ([][]models.AgentSnapshot, []models.Task) {
		fleet, _ := newScenarioFleet(t, 1.0, 0.7)
		var frames [][]models.AgentSnapshot
		for i := 0; i < 30; i++ {
			if i%4 == 0 {
				_, err := fleet.RequestItem("X")
				require.NoError(t, err)
			}
			require.NoError(t, fleet.Step(0.5))
			frames = append(frames, fleet.Statuses())
		}
		return frames, fleet.Tasks()
	}

	framesA, tasksA := run()
	framesB, tasksB := run()
	assert.Empty(t, cmp.Diff(framesA, framesB))
	assert.Empty(t, cmp.Diff(tasksA, tasksB))
}

func TestFleet_TaskStatusesAreMonotonic(t *testing.T) {
	history := map[models.TaskID][]models.TaskStatus{}
	fleet, _ := newScenarioFleet(t, 1.0)
	fleet.Subscribe(func(task models.Task, _ float64) {
		history[task.ID] = append(history[task.ID], task.Status)
	})

	for i := 0; i < 3; i++ {
		_, err := fleet.RequestItem("X")
		require.NoError(t, err)
	}
	for i := 0; i < 40; i++ {
		require.NoError(t, fleet.Step(1))
	}

	require.Len(t, history, 3)
	want := []models.TaskStatus{models.TaskPending, models.TaskInProgress, models.TaskCompleted}
	for id, got := range history {
		assert.Equal(t, want, got, "task %s", id)
	}

	stats := fleet.Stats()
	assert.Equal(t, 3, stats.TasksByStatus[models.TaskCompleted])
	assert.Equal(t, 1, stats.RobotsByState[models.StateIdle])
	assert.Equal(t, 40.0, stats.Clock)
}

func TestFleet_TaskNotFound(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0)

	_, err := fleet.Task("nope")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	_, ok := fleet.Robot(7)
	assert.False(t, ok)
	robot, ok := fleet.Robot(1)
	assert.True(t, ok)
	assert.Equal(t, "Robot_1", robot.Name)
}
