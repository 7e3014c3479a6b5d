package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"warehouse-fleet/models"
)

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return limit
}

// HandleGetRecentLogs - 최근 로그 조회
func (s *Server) HandleGetRecentLogs(c *fiber.Ctx) error {
	logs, err := s.Recorder.Recent(queryLimit(c))
	if err != nil {
		return respondError(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// HandleGetTaskLogs - 작업별 로그 조회
func (s *Server) HandleGetTaskLogs(c *fiber.Ctx) error {
	id := models.TaskID(c.Params("id"))
	logs, err := s.Recorder.ByTask(id)
	if err != nil {
		return respondError(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"task_id": id,
		"count":   len(logs),
		"logs":    logs,
	})
}

// HandleGetLogsByEventType - 이벤트 타입별 로그 조회
func (s *Server) HandleGetLogsByEventType(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	if eventType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "event_type parameter is required",
		})
	}

	logs, err := s.Recorder.ByEventType(eventType, queryLimit(c))
	if err != nil {
		return respondError(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(logs),
		"event_type": eventType,
		"logs":       logs,
	})
}

// HandleGetLogStats - 로그 통계 조회
func (s *Server) HandleGetLogStats(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	stats, err := s.Recorder.Stats(time.Now().Add(-time.Duration(hours) * time.Hour))
	if err != nil {
		return respondError(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
