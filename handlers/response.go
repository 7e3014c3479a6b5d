package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"warehouse-fleet/models"
)

var validate = validator.New()

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownSKU),
		errors.Is(err, models.ErrTaskNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrShelfUnreachable):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidDelta),
		errors.Is(err, models.ErrOutOfBounds):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrSimulationRunning):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrStoreDisabled):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError - 에러 응답
func respondError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// bindAndValidate parses the JSON body into obj and checks its validate tags.
func bindAndValidate(c *fiber.Ctx, obj interface{}) error {
	if err := c.BodyParser(obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// fieldMessage - 사람이 읽을 수 있는 검증 메시지
func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
