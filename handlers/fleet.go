package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"warehouse-fleet/models"
)

// RequestItemRequest - 물품 요청 바디
type RequestItemRequest struct {
	SKU string `json:"sku" validate:"required,max=64"`
}

// StepRequest - 수동 스텝 바디. 생략하면 시뮬레이터 기본 delta, 1틱
type StepRequest struct {
	Delta float64 `json:"delta" validate:"gte=0"`
	Ticks int     `json:"ticks" validate:"gte=0,lte=10000"`
}

// requestItem is shared by the HTTP and websocket paths.
func (s *Server) requestItem(sku string) (models.Task, error) {
	id, err := s.Fleet.RequestItem(sku)
	if err != nil {
		if s.Recorder != nil {
			s.Recorder.RecordRequestFailure(sku, s.Fleet.Clock(), err)
		}
		return models.Task{}, err
	}
	return s.Fleet.Task(id)
}

// HandleRequestItem - POST /api/tasks
func (s *Server) HandleRequestItem(c *fiber.Ctx) error {
	var req RequestItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err)
	}

	task, err := s.requestItem(req.SKU)
	if err != nil {
		return respondError(c, statusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"task":    task,
	})
}

// HandleListTasks - GET /api/tasks?status=
func (s *Server) HandleListTasks(c *fiber.Ctx) error {
	tasks := s.Fleet.Tasks()
	if status := models.TaskStatus(c.Query("status")); status != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(tasks),
		"tasks":   tasks,
	})
}

// HandleGetTask - GET /api/tasks/:id
func (s *Server) HandleGetTask(c *fiber.Ctx) error {
	task, err := s.Fleet.Task(models.TaskID(c.Params("id")))
	if err != nil {
		return respondError(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"task":    task,
	})
}

// HandleListRobots - GET /api/robots
func (s *Server) HandleListRobots(c *fiber.Ctx) error {
	robots := s.Fleet.Statuses()
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(robots),
		"robots":  robots,
	})
}

// HandleGetRobot - GET /api/robots/:id
func (s *Server) HandleGetRobot(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "robot id must be an integer",
		})
	}
	robot, ok := s.Fleet.Robot(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "robot not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"robot":   robot,
	})
}

// HandleSimulationStatus - GET /api/simulation
func (s *Server) HandleSimulationStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"running":  s.Simulator.Running(),
		"tick":     s.Fleet.Tick(),
		"interval": s.Simulator.Interval().String(),
		"delta":    s.Simulator.Delta(),
		"stats":    s.Fleet.Stats(),
	})
}

// HandleStep - POST /api/simulation/step
func (s *Server) HandleStep(c *fiber.Ctx) error {
	var req StepRequest
	if len(c.Body()) > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return respondError(c, fiber.StatusBadRequest, err)
		}
	}
	delta := req.Delta
	if delta == 0 {
		delta = s.Simulator.Delta()
	}
	ticks := req.Ticks
	if ticks == 0 {
		ticks = 1
	}
	if err := s.Simulator.StepManual(delta, ticks); err != nil {
		return respondError(c, statusFor(err), err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"clock":   s.Fleet.Clock(),
		"tick":    s.Fleet.Tick(),
		"robots":  s.Fleet.Statuses(),
	})
}

// HandleStart - POST /api/simulation/start
func (s *Server) HandleStart(c *fiber.Ctx) error {
	s.Simulator.Start()
	s.Logger.Info("simulation started via api")
	return c.JSON(fiber.Map{"success": true, "running": true})
}

// HandleStop - POST /api/simulation/stop
func (s *Server) HandleStop(c *fiber.Ctx) error {
	s.Simulator.Stop()
	s.Logger.Info("simulation stopped via api", zap.Float64("clock", s.Fleet.Clock()))
	return c.JSON(fiber.Map{"success": true, "running": false})
}

// HandleLayout - GET /api/layout
func (s *Server) HandleLayout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"name":    s.Warehouse.Name,
		"map":     s.Warehouse.MapData(),
		"dock":    s.Fleet.Dock(),
	})
}

// HandleInventory - GET /api/inventory
func (s *Server) HandleInventory(c *fiber.Ctx) error {
	inv := s.Warehouse.Inventory
	if shelf := c.Query("shelf"); shelf != "" {
		return c.JSON(fiber.Map{
			"success": true,
			"shelf":   shelf,
			"items":   inv.ItemsOnShelf(shelf),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"shelves": inv.Shelves(),
		"items":   inv.Items(),
	})
}
