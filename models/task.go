package models

// ========================================
// 작업 상태 상수
// ========================================
const (
	TaskPending    TaskStatus = "pending"     // 배정됨, 대기열에 있음
	TaskInProgress TaskStatus = "in_progress" // 로봇이 수행 중
	TaskCompleted  TaskStatus = "completed"   // 도크에 전달 완료
	TaskFailed     TaskStatus = "failed"      // 경로 없음 등으로 실패
)

// TaskStatus - 작업 상태 타입
type TaskStatus string

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// CanTransition - 단조 전이만 허용
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskPending:
		return next == TaskInProgress
	case TaskInProgress:
		return next == TaskCompleted || next == TaskFailed
	}
	return false
}

// TaskID - 작업 식별자
type TaskID string

// ========================================
// 작업 레코드
// ========================================
type Task struct {
	ID            TaskID     `json:"task_id"`
	SKU           string     `json:"sku"`
	ShelfID       string     `json:"shelf_id"`
	Shelf         Position   `json:"shelf"`
	Pickup        Position   `json:"pickup"`
	Dropoff       Position   `json:"dropoff"`
	Status        TaskStatus `json:"status"`
	AgentID       int        `json:"agent_id"`
	CreatedAt     float64    `json:"created_at"`             // 시뮬레이션 시각
	CompletedAt   *float64   `json:"completed_at"`           // 종료 시각 (없으면 nil)
	FailureReason string     `json:"failure_reason,omitempty"`
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// TaskEvent - 로봇이 보고하는 작업 상태 변화
type TaskEvent struct {
	TaskID  TaskID     `json:"task_id"`
	AgentID int        `json:"agent_id"`
	Status  TaskStatus `json:"status"`
	Reason  string     `json:"reason,omitempty"`
}
