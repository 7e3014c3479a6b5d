package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"warehouse-fleet/config"
	"warehouse-fleet/services"
)

// Server bundles the components the HTTP layer talks to.
type Server struct {
	Fleet     *services.FleetCoordinator
	Simulator *services.Simulator
	Recorder  *services.Recorder
	Warehouse *services.Warehouse
	Hub       *Hub
	Metrics   *services.Metrics
	Logger    *zap.Logger

	// AccessLog enables fiber's request logger middleware.
	AccessLog bool
}

// NewApp - fiber 앱 생성 및 라우트 등록
func NewApp(s *Server, cfg config.ServerConfig) *fiber.App {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "warehouse-fleet",
		DisableStartupMessage: true,
	})

	if s.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("warehouse-fleet 서버가 실행 중입니다.")
	})

	if s.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/health", s.HandleHealth)

	// 작업
	api.Post("/tasks", s.HandleRequestItem)
	api.Get("/tasks", s.HandleListTasks)
	api.Get("/tasks/:id", s.HandleGetTask)

	// 로봇
	api.Get("/robots", s.HandleListRobots)
	api.Get("/robots/:id", s.HandleGetRobot)

	// 시뮬레이션 제어
	sim := api.Group("/simulation")
	sim.Get("/", s.HandleSimulationStatus)
	sim.Post("/step", s.HandleStep)
	sim.Post("/start", s.HandleStart)
	sim.Post("/stop", s.HandleStop)

	// 창고
	api.Get("/layout", s.HandleLayout)
	api.Get("/inventory", s.HandleInventory)
	api.Post("/pathfinding", s.HandlePathfinding)

	// 로그 조회
	logsAPI := api.Group("/logs")
	logsAPI.Get("/recent", s.HandleGetRecentLogs)    // 최근 로그
	logsAPI.Get("/task/:id", s.HandleGetTaskLogs)    // 작업별
	logsAPI.Get("/type", s.HandleGetLogsByEventType) // 이벤트 타입별
	logsAPI.Get("/stats", s.HandleGetLogStats)       // 통계

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/websocket/web", websocket.New(s.HandleWebClientWebSocket))

	return app
}

// HandleHealth - 상태 확인
func (s *Server) HandleHealth(c *fiber.Ctx) error {
	clients := 0
	if s.Hub != nil {
		clients = s.Hub.ClientCount()
	}
	return c.JSON(fiber.Map{
		"status":  "OK",
		"clients": clients,
		"clock":   s.Fleet.Clock(),
		"store":   s.Recorder.Enabled(),
		"time":    time.Now().Format(time.RFC3339),
	})
}
