package services

import (
	"fmt"

	"warehouse-fleet/algorithms"
	"warehouse-fleet/models"
)

const (
	// PickDuration is the simulated time a robot spends at the shelf.
	PickDuration = 1.0

	// moveEpsilon absorbs float drift when comparing travelled distance to a whole cell.
	moveEpsilon = 1e-9
)

// Agent - 창고 로봇 상태 머신
//
// An Agent is owned by a FleetCoordinator and must only be mutated from the
// coordinator's update loop.
type Agent struct {
	id    int
	name  string
	speed float64

	state    models.AgentState
	position models.Position // 마지막으로 도달한 셀
	progress float64         // 다음 웨이포인트까지 진행률 [0,1)

	current     *models.Task
	queue       []models.Task
	path        models.Path
	pathIndex   int
	carrying    bool
	pickElapsed float64

	pathfinder *algorithms.Pathfinder
}

// NewAgent - 로봇 생성
func NewAgent(id int, name string, start models.Position, speed float64, pf *algorithms.Pathfinder) (*Agent, error) {
	if speed <= 0 {
		return nil, fmt.Errorf("robot %d: speed must be positive, got %v", id, speed)
	}
	if name == "" {
		name = fmt.Sprintf("Robot_%d", id)
	}
	return &Agent{
		id:         id,
		name:       name,
		speed:      speed,
		state:      models.StateIdle,
		position:   start,
		pathfinder: pf,
	}, nil
}

func (a *Agent) ID() int                   { return a.id }
func (a *Agent) Name() string              { return a.name }
func (a *Agent) State() models.AgentState  { return a.state }
func (a *Agent) Position() models.Position { return a.position }
func (a *Agent) Carrying() bool            { return a.carrying }
func (a *Agent) QueueLength() int          { return len(a.queue) }

// Load counts queued tasks plus the one in progress.
func (a *Agent) Load() int {
	if a.current != nil {
		return len(a.queue) + 1
	}
	return len(a.queue)
}

// CurrentTaskID returns "" while the robot has no task.
func (a *Agent) CurrentTaskID() models.TaskID {
	if a.current == nil {
		return ""
	}
	return a.current.ID
}

// Location - 진행률로 보간한 연속 좌표
func (a *Agent) Location() models.Point {
	loc := models.PointOf(a.position)
	if !a.state.Moving() || a.progress == 0 || a.pathIndex+1 >= len(a.path) {
		return loc
	}
	next := a.path[a.pathIndex+1]
	loc.Row += float64(next.Row-a.position.Row) * a.progress
	loc.Col += float64(next.Col-a.position.Col) * a.progress
	return loc
}

// Enqueue appends a task to the private FIFO queue.
func (a *Agent) Enqueue(task models.Task) {
	a.queue = append(a.queue, task)
}

// Snapshot - 현재 상태 반환
func (a *Agent) Snapshot() models.AgentSnapshot {
	remaining := 0
	if a.state.Moving() {
		remaining = len(a.path) - 1 - a.pathIndex
	}
	return models.AgentSnapshot{
		AgentID:       a.id,
		Name:          a.name,
		State:         a.state,
		Position:      a.position,
		Location:      a.Location(),
		Speed:         a.speed,
		CurrentTaskID: a.CurrentTaskID(),
		QueueLength:   len(a.queue),
		Carrying:      a.carrying,
		PathRemaining: remaining,
	}
}

// Update - 시뮬레이션 업데이트
//
// Advances the robot by dt simulated time units and returns the task status
// changes that happened, in order. The canonical task record is not touched.
func (a *Agent) Update(dt float64) []models.TaskEvent {
	if dt <= 0 {
		return nil
	}

	var events []models.TaskEvent
	switch a.state {
	case models.StateIdle:
		events = a.startNextTask(dt)
	case models.StateMovingToPickup, models.StateMovingToDropoff:
		events = a.advance(dt)
	case models.StatePicking:
		events = a.pick(dt)
	case models.StateDelivering:
		events = a.deliver()
	}
	return events
}

// startNextTask - 대기열에서 다음 작업 시작
func (a *Agent) startNextTask(dt float64) []models.TaskEvent {
	if len(a.queue) == 0 {
		return nil
	}

	task := a.queue[0]
	a.queue[0] = models.Task{}
	a.queue = a.queue[1:]
	task.Status = models.TaskInProgress
	a.current = &task

	events := []models.TaskEvent{a.event(models.TaskInProgress, "")}

	path, err := a.pathfinder.FindPath(a.position, task.Pickup)
	if err != nil {
		return append(events, a.fail(fmt.Sprintf("no route to pickup %s: %v", task.Pickup, err)))
	}

	a.follow(path, models.StateMovingToPickup)
	// 같은 틱 안에서 바로 이동 시작
	return append(events, a.advance(dt)...)
}

// advance - 경로를 따라 speed×dt 만큼 이동
func (a *Agent) advance(dt float64) []models.TaskEvent {
	last := len(a.path) - 1
	if a.pathIndex < last {
		a.progress += a.speed * dt
		for a.pathIndex < last && a.progress >= 1-moveEpsilon {
			a.progress--
			if a.progress < 0 {
				a.progress = 0
			}
			a.pathIndex++
			a.position = a.path[a.pathIndex]
		}
	}
	if a.pathIndex < last {
		return nil
	}
	return a.arrive()
}

// arrive - 최종 웨이포인트 도달 처리
func (a *Agent) arrive() []models.TaskEvent {
	a.progress = 0
	a.path = nil
	a.pathIndex = 0

	switch a.state {
	case models.StateMovingToPickup:
		a.state = models.StatePicking
		a.pickElapsed = 0
	case models.StateMovingToDropoff:
		a.state = models.StateDelivering
		return a.deliver()
	}
	return nil
}

// pick - 집기 타이머 누적
func (a *Agent) pick(dt float64) []models.TaskEvent {
	a.pickElapsed += dt
	if a.pickElapsed+moveEpsilon < PickDuration {
		return nil
	}

	a.carrying = true
	path, err := a.pathfinder.FindPath(a.position, a.current.Dropoff)
	if err != nil {
		return []models.TaskEvent{a.fail(fmt.Sprintf("no route to dropoff %s: %v", a.current.Dropoff, err))}
	}
	a.follow(path, models.StateMovingToDropoff)
	return nil
}

// deliver - 도크에서 즉시 전달
func (a *Agent) deliver() []models.TaskEvent {
	ev := a.event(models.TaskCompleted, "")
	a.carrying = false
	a.current = nil
	a.state = models.StateIdle
	return []models.TaskEvent{ev}
}

// fail abandons the current task and returns the robot to idle.
func (a *Agent) fail(reason string) models.TaskEvent {
	ev := a.event(models.TaskFailed, reason)
	a.carrying = false
	a.current = nil
	a.path = nil
	a.pathIndex = 0
	a.progress = 0
	a.state = models.StateIdle
	return ev
}

func (a *Agent) follow(path models.Path, state models.AgentState) {
	a.path = path
	a.pathIndex = 0
	a.progress = 0
	a.state = state
}

func (a *Agent) event(status models.TaskStatus, reason string) models.TaskEvent {
	return models.TaskEvent{
		TaskID:  a.current.ID,
		AgentID: a.id,
		Status:  status,
		Reason:  reason,
	}
}
