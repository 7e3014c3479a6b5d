package models

import (
	"time"
)

// 이벤트 타입
const (
	EventTaskCreated    = "task_created"
	EventTaskStarted    = "task_started"
	EventTaskCompleted  = "task_completed"
	EventTaskFailed     = "task_failed"
	EventRobotSnapshot  = "robot_snapshot"
	EventRequestFailure = "request_failed"
)

// EventForStatus maps a task status to the event type recorded for it.
func EventForStatus(s TaskStatus) string {
	switch s {
	case TaskPending:
		return EventTaskCreated
	case TaskInProgress:
		return EventTaskStarted
	case TaskCompleted:
		return EventTaskCompleted
	case TaskFailed:
		return EventTaskFailed
	}
	return string(s)
}

// FleetLog - 플릿 이벤트 로그
type FleetLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	SimTime   float64   `json:"sim_time"`
	EventType string    `gorm:"index;size:32" json:"event_type"`

	// 로봇 정보
	AgentID  int     `gorm:"index" json:"agent_id"`
	State    string  `json:"state"`
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	LocRow   float64 `json:"loc_row"`
	LocCol   float64 `json:"loc_col"`
	Carrying bool    `json:"carrying"`
	Queue    int     `json:"queue"`

	// 작업 정보
	TaskID string `gorm:"index;size:64" json:"task_id"`
	SKU    string `gorm:"size:64" json:"sku"`
	Status string `gorm:"size:16" json:"status"`
	Detail string `json:"detail"`
}

// LogStats - 이벤트 타입별 집계
type LogStats struct {
	Total       int64            `json:"total_logs"`
	EventCounts map[string]int64 `json:"event_counts"`
	Since       time.Time        `json:"since"`
}
