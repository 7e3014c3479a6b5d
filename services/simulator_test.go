package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"warehouse-fleet/models"
)

type messageLog struct {
	mu   sync.Mutex
	msgs []models.WebSocketMessage
}

func (l *messageLog) broadcast(msg models.WebSocketMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *messageLog) ofType(typ string) []models.WebSocketMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.WebSocketMessage
	for _, m := range l.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func TestSimulator_AdvanceBroadcasts(t *testing.T) {
	fleet, _ := newScenarioFleet(t, 1.0)
	msgs := &messageLog{}
	sim := NewSimulator(fleet, time.Hour, 1.0, msgs.broadcast, zaptest.NewLogger(t))
	rec := NewRecorder(nil, 100, time.Hour, nil)
	sim.SetRecorder(rec, 2)

	_, err := fleet.RequestItem("X")
	require.NoError(t, err)
	require.NoError(t, sim.Advance(1.0))
	require.NoError(t, sim.Advance(1.0))

	status := msgs.ofType(models.MessageTypeFleetStatus)
	require.Len(t, status, 2)
	data, ok := status[1].Data.(models.FleetStatusData)
	require.True(t, ok)
	assert.Equal(t, uint64(2), data.Tick)
	assert.Equal(t, 2.0, data.Clock)
	require.Len(t, data.Robots, 1)

	updates := msgs.ofType(models.MessageTypeTaskUpdate)
	require.Len(t, updates, 2)
	assert.Equal(t, models.TaskPending, updates[0].Data.(models.Task).Status)
	assert.Equal(t, models.TaskInProgress, updates[1].Data.(models.Task).Status)

	// two task entries plus one snapshot on tick 2
	assert.Equal(t, 3, rec.Buffered())
	assert.ErrorIs(t, sim.Advance(0), models.ErrInvalidDelta)
}

func TestSimulator_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	fleet, _ := newScenarioFleet(t, 1.0)
	msgs := &messageLog{}
	sim := NewSimulator(fleet, time.Millisecond, 0.5, msgs.broadcast, zaptest.NewLogger(t))

	id, err := fleet.RequestItem("X")
	require.NoError(t, err)

	assert.False(t, sim.Running())
	sim.Start()
	sim.Start()
	assert.True(t, sim.Running())

	require.Eventually(t, func() bool {
		task, err := fleet.Task(id)
		return err == nil && task.Status == models.TaskCompleted
	}, 5*time.Second, 5*time.Millisecond)

	sim.Stop()
	sim.Stop()
	assert.False(t, sim.Running())

	tick := fleet.Tick()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, tick, fleet.Tick(), "no steps after stop")
	assert.NotEmpty(t, msgs.ofType(models.MessageTypeFleetStatus))

	// restart after stop
	sim.Start()
	require.Eventually(t, func() bool { return fleet.Tick() > tick }, 5*time.Second, 5*time.Millisecond)
	sim.Stop()
}

func TestSimulator_StepManual(t *testing.T) {
	defer goleak.VerifyNone(t)

	fleet, _ := newScenarioFleet(t, 1.0)
	sim := NewSimulator(fleet, time.Hour, 1.0, nil, zaptest.NewLogger(t))

	require.NoError(t, sim.StepManual(1.0, 3))
	assert.Equal(t, uint64(3), fleet.Tick())
	assert.ErrorIs(t, sim.StepManual(-1, 1), models.ErrInvalidDelta)

	sim.Start()
	assert.ErrorIs(t, sim.StepManual(1.0, 1), models.ErrSimulationRunning)
	assert.Equal(t, uint64(3), fleet.Tick())
	sim.Stop()

	require.NoError(t, sim.StepManual(1.0, 1))
	assert.Equal(t, uint64(4), fleet.Tick())
}

func TestSimulator_StepManualRacingStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	fleet, _ := newScenarioFleet(t, 1.0)
	// 티커가 발생하지 않으므로 모든 틱은 StepManual에서만 나온다
	sim := NewSimulator(fleet, time.Hour, 1.0, nil, zaptest.NewLogger(t))

	var (
		wg       sync.WaitGroup
		stepped  int
		rejected int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			err := sim.StepManual(1.0, 1)
			switch {
			case err == nil:
				stepped++
			case assert.ErrorIs(t, err, models.ErrSimulationRunning):
				rejected++
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			sim.Start()
			sim.Stop()
		}
	}()
	wg.Wait()

	assert.Equal(t, 200, stepped+rejected)
	assert.Equal(t, uint64(stepped), fleet.Tick())
}
