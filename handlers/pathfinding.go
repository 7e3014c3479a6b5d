package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"warehouse-fleet/models"
)

type PathfindingRequest struct {
	Start models.Position `json:"start"`
	Goal  models.Position `json:"goal"`
	// Nearest plans to the closest open side of Goal instead of Goal itself.
	Nearest bool `json:"nearest"`
}

type PathfindingResponse struct {
	Success bool            `json:"success"`
	Path    models.Path     `json:"path,omitempty"`
	Goal    models.Position `json:"goal"`
	Cost    int             `json:"cost"`
	Message string          `json:"message,omitempty"`
}

// HandlePathfinding - POST /api/pathfinding
func (s *Server) HandlePathfinding(c *fiber.Ctx) error {
	var req PathfindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Message: "잘못된 요청 형식입니다",
		})
	}

	pf := s.Fleet.Pathfinder()
	grid := pf.Grid()
	if !grid.InBounds(req.Start) || !grid.InBounds(req.Goal) {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Goal:    req.Goal,
			Message: models.ErrOutOfBounds.Error(),
		})
	}

	goal := req.Goal
	if req.Nearest {
		near, err := pf.NearestAccessible(req.Start, req.Goal)
		if err != nil {
			return c.JSON(PathfindingResponse{
				Success: false,
				Goal:    req.Goal,
				Message: models.ErrShelfUnreachable.Error(),
			})
		}
		goal = near
	}

	path, err := pf.FindPath(req.Start, goal)
	if err != nil {
		s.Logger.Debug("no path",
			zap.Stringer("start", req.Start),
			zap.Stringer("goal", goal),
			zap.Error(err))
		msg := err.Error()
		if errors.Is(err, models.ErrPathNotFound) {
			msg = "경로를 찾을 수 없습니다"
		}
		return c.JSON(PathfindingResponse{
			Success: false,
			Goal:    goal,
			Message: msg,
		})
	}

	return c.JSON(PathfindingResponse{
		Success: true,
		Path:    path,
		Goal:    goal,
		Cost:    path.Cost(),
		Message: "경로 탐색 성공",
	})
}
