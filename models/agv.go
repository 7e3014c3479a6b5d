package models

// ========================================
// 로봇 상태 상수
// ========================================
const (
	StateIdle            AgentState = "idle"              // 대기 중
	StateMovingToPickup  AgentState = "moving_to_pickup"  // 선반으로 이동 중
	StatePicking         AgentState = "picking"           // 물품 집는 중
	StateMovingToDropoff AgentState = "moving_to_dropoff" // 도크로 이동 중
	StateDelivering      AgentState = "delivering"        // 전달 중
)

// AgentState - 로봇 상태 타입
type AgentState string

// Moving reports whether the robot is consuming a path.
func (s AgentState) Moving() bool {
	return s == StateMovingToPickup || s == StateMovingToDropoff
}

// AllAgentStates lists states in lifecycle order.
var AllAgentStates = []AgentState{
	StateIdle,
	StateMovingToPickup,
	StatePicking,
	StateMovingToDropoff,
	StateDelivering,
}

// ========================================
// 로봇 스냅샷
// ========================================
type AgentSnapshot struct {
	AgentID       int        `json:"agent_id"`
	Name          string     `json:"name"`
	State         AgentState `json:"state"`
	Position      Position   `json:"position"` // 마지막으로 도달한 셀
	Location      Point      `json:"location"` // 보간된 연속 좌표
	Speed         float64    `json:"speed"`    // cells / time unit
	CurrentTaskID TaskID     `json:"current_task_id,omitempty"`
	QueueLength   int        `json:"queue_length"`
	Carrying      bool       `json:"carrying"`
	PathRemaining int        `json:"path_remaining"`
}

// ========================================
// 플릿 통계
// ========================================
type FleetStats struct {
	Clock         float64            `json:"clock"`
	Robots        int                `json:"robots"`
	RobotsByState map[AgentState]int `json:"robots_by_state"`
	Tasks         int                `json:"tasks"`
	TasksByStatus map[TaskStatus]int `json:"tasks_by_status"`
}
