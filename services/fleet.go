package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warehouse-fleet/algorithms"
	"warehouse-fleet/models"
)

// taskNamespace seeds deterministic task ids.
var taskNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("warehouse-fleet/tasks"))

// AgentSpec - 로봇 초기 설정
type AgentSpec struct {
	Name  string          `yaml:"name" json:"name"`
	Start models.Position `yaml:"start" json:"start"`
	Speed float64         `yaml:"speed" json:"speed" validate:"gt=0"`
}

// FleetConfig - 플릿 구성
type FleetConfig struct {
	Dock   models.Position
	Agents []AgentSpec
}

// TaskSink receives a copy of every task whose status changed, including
// newly created ones, with the simulated time of the change. Sinks run
// after the coordinator lock is released.
type TaskSink func(task models.Task, clock float64)

// Option configures a FleetCoordinator.
type Option func(*FleetCoordinator)

// WithLogger - 로거 주입
func WithLogger(logger *zap.Logger) Option {
	return func(c *FleetCoordinator) {
		if logger != nil {
			c.logger = logger.Named("fleet")
		}
	}
}

// WithMetrics - 메트릭 주입
func WithMetrics(m *Metrics) Option {
	return func(c *FleetCoordinator) { c.metrics = m }
}

// WithTaskSink registers a task change listener.
func WithTaskSink(sink TaskSink) Option {
	return func(c *FleetCoordinator) {
		if sink != nil {
			c.sinks = append(c.sinks, sink)
		}
	}
}

// FleetCoordinator - 작업 배정과 시뮬레이션 틱을 관리
//
// RequestItem and Step are serialized by one mutex, so load checks and
// enqueues never interleave with agent updates.
type FleetCoordinator struct {
	mu sync.Mutex

	grid       algorithms.GridMap
	pathfinder *algorithms.Pathfinder
	inventory  InventoryLookup
	registry   *TaskRegistry
	agents     []*Agent
	dock       models.Position

	clock float64
	tick  uint64
	seq   uint64

	logger  *zap.Logger
	metrics *Metrics
	sinks   []TaskSink
}

// NewFleetCoordinator - 플릿 생성. 로봇 id는 1부터 순서대로 부여
func NewFleetCoordinator(cfg FleetConfig, grid algorithms.GridMap, inv InventoryLookup, opts ...Option) (*FleetCoordinator, error) {
	if len(cfg.Agents) == 0 {
		return nil, models.ErrNoAgents
	}
	if !grid.InBounds(cfg.Dock) {
		return nil, fmt.Errorf("dock %s: %w", cfg.Dock, models.ErrOutOfBounds)
	}

	c := &FleetCoordinator{
		grid:       grid,
		pathfinder: algorithms.NewPathfinder(grid),
		inventory:  inv,
		registry:   NewTaskRegistry(),
		dock:       cfg.Dock,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, spec := range cfg.Agents {
		if !grid.InBounds(spec.Start) {
			return nil, fmt.Errorf("robot %d start %s: %w", i+1, spec.Start, models.ErrOutOfBounds)
		}
		agent, err := NewAgent(i+1, spec.Name, spec.Start, spec.Speed, c.pathfinder)
		if err != nil {
			return nil, err
		}
		c.agents = append(c.agents, agent)
	}

	c.logger.Info("fleet ready",
		zap.Int("robots", len(c.agents)),
		zap.Stringer("dock", c.dock))
	c.metrics.recordRobots(c.statuses())
	return c, nil
}

// RequestItem - 물품 요청을 작업으로 변환하여 배정
//
// The call never advances simulated time. On failure no task is created.
func (c *FleetCoordinator) RequestItem(sku string) (models.TaskID, error) {
	c.mu.Lock()
	task, err := c.assign(sku)
	sinks := c.sinks
	c.mu.Unlock()

	if err != nil {
		result := RequestUnknownSKU
		if errors.Is(err, models.ErrShelfUnreachable) {
			result = RequestShelfUnreachable
		}
		c.metrics.recordRequest(result)
		c.logger.Warn("request rejected", zap.String("sku", sku), zap.Error(err))
		return "", err
	}

	c.metrics.recordRequest(RequestAccepted)
	c.logger.Info("task assigned",
		zap.String("task_id", string(task.ID)),
		zap.String("sku", sku),
		zap.Int("agent_id", task.AgentID),
		zap.Stringer("pickup", task.Pickup))
	publish(sinks, []models.Task{task}, task.CreatedAt)
	return task.ID, nil
}

// assign runs with c.mu held.
func (c *FleetCoordinator) assign(sku string) (models.Task, error) {
	shelfID, shelf, ok := c.inventory.ShelfForSKU(sku)
	if !ok {
		return models.Task{}, &models.TaskAssignmentError{SKU: sku, Err: models.ErrUnknownSKU}
	}

	access := c.pathfinder.AccessCells(shelf)
	if len(access) == 0 {
		return models.Task{}, &models.TaskAssignmentError{
			SKU: sku,
			Err: fmt.Errorf("%w: shelf %s at %s", models.ErrShelfUnreachable, shelfID, shelf),
		}
	}

	agent := c.leastLoaded()
	pickup, err := c.pathfinder.NearestAccessible(agent.Position(), shelf)
	if err != nil {
		// 이 로봇에서 도달 불가: 첫 접근 셀로 배정하고 실행 시 실패 처리
		pickup = access[0]
		c.logger.Debug("pickup not reachable from robot",
			zap.Int("robot", agent.ID()),
			zap.String("shelf", shelfID),
			zap.Stringer("pickup", pickup))
	}

	c.seq++
	task := models.Task{
		ID:        c.nextID(),
		SKU:       sku,
		ShelfID:   shelfID,
		Shelf:     shelf,
		Pickup:    pickup,
		Dropoff:   c.dock,
		Status:    models.TaskPending,
		AgentID:   agent.ID(),
		CreatedAt: c.clock,
	}
	if err := c.registry.Insert(task); err != nil {
		c.seq--
		return models.Task{}, err
	}
	agent.Enqueue(task)
	return task, nil
}

func (c *FleetCoordinator) nextID() models.TaskID {
	return models.TaskID(uuid.NewSHA1(taskNamespace, []byte("task-"+strconv.FormatUint(c.seq, 10))).String())
}

// leastLoaded - 가장 적은 부하의 로봇 (동률이면 낮은 id)
func (c *FleetCoordinator) leastLoaded() *Agent {
	best := c.agents[0]
	for _, a := range c.agents[1:] {
		if a.Load() < best.Load() {
			best = a
		}
	}
	return best
}

// Step - 시뮬레이션 한 틱 진행
func (c *FleetCoordinator) Step(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return fmt.Errorf("step %v: %w", dt, models.ErrInvalidDelta)
	}

	started := time.Now()
	c.mu.Lock()
	c.clock += dt
	c.tick++

	var changed []models.Task
	for _, agent := range c.agents {
		for _, ev := range agent.Update(dt) {
			task, err := c.registry.Transition(ev.TaskID, ev.Status, c.clock, ev.Reason)
			if err != nil {
				c.logger.Error("task transition rejected",
					zap.String("task_id", string(ev.TaskID)),
					zap.Int("agent_id", ev.AgentID),
					zap.String("status", string(ev.Status)),
					zap.Error(err))
				continue
			}
			changed = append(changed, task)
			c.logTransition(task)
		}
	}
	clock := c.clock
	robots := c.statuses()
	sinks := c.sinks
	c.mu.Unlock()

	for _, task := range changed {
		c.metrics.recordTaskEvent(task.Status)
	}
	c.metrics.recordTick(clock, time.Since(started), robots)
	publish(sinks, changed, clock)
	return nil
}

func (c *FleetCoordinator) logTransition(task models.Task) {
	fields := []zap.Field{
		zap.String("task_id", string(task.ID)),
		zap.Int("agent_id", task.AgentID),
		zap.String("status", string(task.Status)),
		zap.Float64("clock", c.clock),
	}
	if task.Status == models.TaskFailed {
		c.logger.Warn("task failed", append(fields, zap.String("reason", task.FailureReason))...)
		return
	}
	c.logger.Debug("task transition", fields...)
}

// Subscribe registers a task change listener after construction.
func (c *FleetCoordinator) Subscribe(sink TaskSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks[:len(c.sinks):len(c.sinks)], sink)
}

func publish(sinks []TaskSink, tasks []models.Task, clock float64) {
	for _, task := range tasks {
		for _, sink := range sinks {
			sink(task.Clone(), clock)
		}
	}
}

// Statuses - 로봇 스냅샷 (id 오름차순)
func (c *FleetCoordinator) Statuses() []models.AgentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses()
}

func (c *FleetCoordinator) statuses() []models.AgentSnapshot {
	out := make([]models.AgentSnapshot, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, a.Snapshot())
	}
	return out
}

// Robot returns the snapshot of one robot.
func (c *FleetCoordinator) Robot(id int) (models.AgentSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := sort.Search(len(c.agents), func(i int) bool { return c.agents[i].ID() >= id })
	if i == len(c.agents) || c.agents[i].ID() != id {
		return models.AgentSnapshot{}, false
	}
	return c.agents[i].Snapshot(), true
}

// Tasks returns every task in creation order.
func (c *FleetCoordinator) Tasks() []models.Task {
	return c.registry.Snapshots()
}

// Task returns one task or ErrTaskNotFound.
func (c *FleetCoordinator) Task(id models.TaskID) (models.Task, error) {
	task, ok := c.registry.Get(id)
	if !ok {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	return task, nil
}

// Clock returns the simulated time elapsed.
func (c *FleetCoordinator) Clock() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// Tick returns the number of executed steps.
func (c *FleetCoordinator) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Stats - 플릿 집계
func (c *FleetCoordinator) Stats() models.FleetStats {
	c.mu.Lock()
	byState := make(map[models.AgentState]int, len(models.AllAgentStates))
	for _, a := range c.agents {
		byState[a.State()]++
	}
	stats := models.FleetStats{
		Clock:         c.clock,
		Robots:        len(c.agents),
		RobotsByState: byState,
	}
	c.mu.Unlock()

	stats.Tasks = c.registry.Len()
	stats.TasksByStatus = c.registry.CountByStatus()
	return stats
}

// Dock returns the dropoff position.
func (c *FleetCoordinator) Dock() models.Position { return c.dock }

// Grid returns the shared read-only grid.
func (c *FleetCoordinator) Grid() algorithms.GridMap { return c.grid }

// Pathfinder returns the pathfinder shared by all robots.
func (c *FleetCoordinator) Pathfinder() *algorithms.Pathfinder { return c.pathfinder }
