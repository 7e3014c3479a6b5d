package models

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Server → Web
	MessageTypeFleetStatus = "fleet_status" // 매 틱 로봇 스냅샷
	MessageTypeTaskUpdate  = "task_update"  // 작업 상태 변화
	MessageTypeMapUpdate   = "map_update"   // 그리드 레이아웃
	MessageTypeSystemInfo  = "system_info"  // 시스템 정보

	// Web → Server
	MessageTypeRequestItem = "request_item" // 물품 요청
	MessageTypeSimControl  = "sim_control"  // start / stop / step
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// FleetStatusData - fleet_status 페이로드
type FleetStatusData struct {
	Clock  float64         `json:"clock"`
	Tick   uint64          `json:"tick"`
	Robots []AgentSnapshot `json:"robots"`
}

// MapData - map_update 페이로드
type MapData struct {
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Cells  []string   `json:"cells"` // 행 단위 렌더링
	Docks  []Position `json:"docks"`
	Render string     `json:"render"`
}

// RequestItemData - request_item 페이로드
type RequestItemData struct {
	SKU string `json:"sku"`
}

// SimControlData - sim_control 페이로드
type SimControlData struct {
	Action string  `json:"action"` // "start" | "stop" | "step"
	Delta  float64 `json:"delta,omitempty"`
}
