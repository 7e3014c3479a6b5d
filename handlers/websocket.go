package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"warehouse-fleet/models"
)

// Client - 웹 클라이언트 연결. Writes are serialized per connection.
type Client struct {
	Conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *Client) send(msg models.WebSocketMessage) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.Conn.WriteJSON(msg)
}

// Hub - 클라이언트 관리 및 브로드캐스트
type Hub struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

// NewHub - 허브 생성
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan models.WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

// Run - 클라이언트 관리 루프. ctx가 끝나면 모든 연결을 닫고 반환
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	h.logger.Info("✅ hub started")

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			h.logger.Info("🛑 hub stopped")
			return nil

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.Conn] = client
			h.mutex.Unlock()
			h.logger.Info("client registered", zap.String("remote", client.Conn.RemoteAddr().String()))

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.handleBroadcast(message)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
		h.logger.Info("client unregistered", zap.String("remote", conn.RemoteAddr().String()))
	}
}

func (h *Hub) handleBroadcast(message models.WebSocketMessage) {
	h.mutex.RLock()
	var failed []*websocket.Conn
	for conn, client := range h.clients {
		if err := client.send(message); err != nil {
			h.logger.Warn("send failed", zap.String("type", message.Type), zap.Error(err))
			failed = append(failed, conn)
		}
	}
	h.mutex.RUnlock()

	for _, conn := range failed {
		h.remove(conn)
	}
}

// Broadcast queues a message for every client. Messages are dropped when
// the queue is full so the simulator never blocks on slow clients.
func (h *Hub) Broadcast(msg models.WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("⚠️ broadcast 채널 가득 참", zap.String("type", msg.Type))
	}
}

// ClientCount - 연결된 클라이언트 수
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Pending returns the number of queued broadcast messages.
func (h *Hub) Pending() int {
	return len(h.broadcast)
}

// HandleWebClientWebSocket - 웹 클라이언트 WebSocket 핸들러
func (s *Server) HandleWebClientWebSocket(c *websocket.Conn) {
	client := &Client{Conn: c}

	select {
	case s.Hub.register <- client:
	case <-s.Hub.done:
		_ = c.Close()
		return
	}
	defer func() {
		select {
		case s.Hub.unregister <- c:
		case <-s.Hub.done:
		}
	}()

	// 연결 확인 + 현재 상태 전송
	for _, msg := range s.greeting() {
		if err := client.send(msg); err != nil {
			return
		}
	}

	for {
		var msg models.WebSocketMessage
		if err := c.ReadJSON(&msg); err != nil {
			s.Logger.Debug("웹 메시지 읽기 종료", zap.Error(err))
			return
		}
		s.Logger.Debug("웹 메시지", zap.String("type", msg.Type))

		if reply := s.handleClientMessage(msg); reply != nil {
			if err := client.send(*reply); err != nil {
				return
			}
		}
	}
}

func (s *Server) greeting() []models.WebSocketMessage {
	now := time.Now()
	return []models.WebSocketMessage{
		{
			Type: models.MessageTypeSystemInfo,
			Data: map[string]interface{}{
				"message":      "웹 클라이언트 연결됨",
				"connected_at": now.Format(time.RFC3339),
				"running":      s.Simulator.Running(),
			},
			Timestamp: now.UnixMilli(),
		},
		{
			Type:      models.MessageTypeMapUpdate,
			Data:      s.Warehouse.MapData(),
			Timestamp: now.UnixMilli(),
		},
		{
			Type: models.MessageTypeFleetStatus,
			Data: models.FleetStatusData{
				Clock:  s.Fleet.Clock(),
				Tick:   s.Fleet.Tick(),
				Robots: s.Fleet.Statuses(),
			},
			Timestamp: now.UnixMilli(),
		},
	}
}

// handleClientMessage processes one inbound message and returns the reply
// for the sender, if any.
func (s *Server) handleClientMessage(msg models.WebSocketMessage) *models.WebSocketMessage {
	switch msg.Type {
	case models.MessageTypeRequestItem:
		var data models.RequestItemData
		if err := decodeData(msg.Data, &data); err != nil || data.SKU == "" {
			return systemInfo(false, errData("sku is required"))
		}
		task, err := s.requestItem(data.SKU)
		if err != nil {
			return systemInfo(false, errData(err.Error()))
		}
		return &models.WebSocketMessage{
			Type:      models.MessageTypeTaskUpdate,
			Data:      task,
			Timestamp: time.Now().UnixMilli(),
		}

	case models.MessageTypeSimControl:
		var data models.SimControlData
		if err := decodeData(msg.Data, &data); err != nil {
			return systemInfo(false, errData("invalid sim_control payload"))
		}
		switch data.Action {
		case "start":
			s.Simulator.Start()
		case "stop":
			s.Simulator.Stop()
		case "step":
			delta := data.Delta
			if delta == 0 {
				delta = s.Simulator.Delta()
			}
			if err := s.Simulator.StepManual(delta, 1); err != nil {
				return systemInfo(false, errData(err.Error()))
			}
		default:
			return systemInfo(false, errData(fmt.Sprintf("unknown action %q", data.Action)))
		}
		return systemInfo(true, map[string]interface{}{
			"action":  data.Action,
			"running": s.Simulator.Running(),
			"clock":   s.Fleet.Clock(),
		})
	}

	s.Logger.Warn("알 수 없는 메시지 타입", zap.String("type", msg.Type))
	return systemInfo(false, errData(fmt.Sprintf("unknown message type %q", msg.Type)))
}

// errData wraps an error message for system_info replies.
func errData(message string) map[string]interface{} {
	return map[string]interface{}{"error": message}
}

func systemInfo(success bool, data map[string]interface{}) *models.WebSocketMessage {
	data["success"] = success
	return &models.WebSocketMessage{
		Type:      models.MessageTypeSystemInfo,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// decodeData converts a generic JSON payload into a typed struct.
func decodeData(data interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
