package services

import (
	"fmt"
	"sync"

	"warehouse-fleet/models"
)

// TaskRegistry - 작업 레코드 단일 소스
//
// Only the FleetCoordinator writes to the registry. Readers always get
// detached copies.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[models.TaskID]*models.Task
	order []models.TaskID
}

// NewTaskRegistry - 빈 레지스트리 생성
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[models.TaskID]*models.Task),
	}
}

// Insert registers a new task. The task must be pending.
func (r *TaskRegistry) Insert(task models.Task) error {
	if task.Status != models.TaskPending {
		return fmt.Errorf("insert %s with status %s: %w", task.ID, task.Status, models.ErrInvalidTransition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("insert %s: %w", task.ID, models.ErrTaskExists)
	}
	t := task.Clone()
	r.tasks[task.ID] = &t
	r.order = append(r.order, task.ID)
	return nil
}

// Transition applies a status change reported by a robot. Completed and
// failed tasks are stamped with `at`.
func (r *TaskRegistry) Transition(id models.TaskID, next models.TaskStatus, at float64, reason string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("transition %s: %w", id, models.ErrTaskNotFound)
	}
	if !task.Status.CanTransition(next) {
		return task.Clone(), fmt.Errorf("transition %s %s -> %s: %w", id, task.Status, next, models.ErrInvalidTransition)
	}

	task.Status = next
	if next.Terminal() {
		stamp := at
		task.CompletedAt = &stamp
	}
	if next == models.TaskFailed {
		task.FailureReason = reason
	}
	return task.Clone(), nil
}

// Get returns a copy of one task.
func (r *TaskRegistry) Get(id models.TaskID) (models.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return task.Clone(), true
}

// Snapshots returns every task in creation order.
func (r *TaskRegistry) Snapshots() []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].Clone())
	}
	return out
}

func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// CountByStatus - 상태별 작업 수
func (r *TaskRegistry) CountByStatus() map[models.TaskStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.TaskStatus]int, 4)
	for _, t := range r.tasks {
		counts[t.Status]++
	}
	return counts
}
