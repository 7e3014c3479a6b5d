package models

import (
	"errors"
	"fmt"
)

var (
	// Navigation errors
	ErrPathNotFound     = errors.New("no path under current lane and obstacle constraints")
	ErrShelfUnreachable = errors.New("shelf has no traversable neighbour")

	// Request errors
	ErrUnknownSKU = errors.New("sku not found in inventory")

	// Task errors
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskExists        = errors.New("task already registered")
	ErrInvalidTransition = errors.New("invalid task status transition")

	// Simulation errors
	ErrInvalidDelta      = errors.New("delta time must be finite and positive")
	ErrNoAgents          = errors.New("fleet needs at least one robot")
	ErrSimulationRunning = errors.New("simulation is running; stop it before stepping manually")

	// Layout errors
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrUnknownShelf = errors.New("shelf not found")
	ErrShelfFull    = errors.New("shelf capacity exceeded")
	ErrDuplicateSKU = errors.New("sku already exists")
	ErrNoDock       = errors.New("layout has no dock")

	// Store errors
	ErrStoreDisabled = errors.New("event store is disabled")
)

// TaskAssignmentError - RequestItem 실패 래퍼
type TaskAssignmentError struct {
	SKU string
	Err error
}

func (e *TaskAssignmentError) Error() string {
	return fmt.Sprintf("assign task for sku %q: %v", e.SKU, e.Err)
}

func (e *TaskAssignmentError) Unwrap() error {
	return e.Err
}
