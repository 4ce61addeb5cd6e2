package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"kiwi-assistant-core/internal/service"
)

// ErrorHandlerMiddleware converts errors escaping a handler into the shared
// response envelope. Expected domain conditions keep their sentinel mapping;
// anything unknown is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := statusFor(err)
		return ctx.Status(code).JSON(fiber.Map{
			"success": false,
			"code":    code,
			"message": err.Error(),
		})
	}
}

func statusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fiber.StatusBadRequest
	}

	switch {
	case errors.Is(err, service.ErrChatNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNoActiveChat),
		errors.Is(err, service.ErrInvalidSheetURL):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrDatasetNotReady):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConnectionLocked),
		errors.Is(err, service.ErrConnectionInProgress):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
