package serverutils

import (
	"errors"
	"fmt"
	"runtime/debug"

	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/pkg/intelligence"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var reqErr *RequestValidationError
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &reqErr), intelligence.IsValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, intelligence.ErrVersionConflict), errors.Is(err, intelligence.ErrLockTimeout):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// NewErrorHandler renders any error returned by a handler as the response
// envelope. Internal errors are logged and hidden from the client.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := StatusFor(err)

		var reqErr *RequestValidationError
		if errors.As(err, &reqErr) {
			return ctx.Status(code).JSON(ErrorResponseWithData(code, "Invalid request", reqErr.Fields))
		}

		message := err.Error()
		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err.Error(),
			})
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// ErrorHandlerMiddleware recovers panics and converts handler errors into the envelope.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := NewErrorHandler(log)
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("HTTP", "Recovered panic", map[string]interface{}{
					"method": ctx.Method(),
					"path":   ctx.Path(),
					"panic":  fmt.Sprint(r),
					"stack":  string(debug.Stack()),
				})
				err = handle(ctx, fmt.Errorf("panic: %v", r))
			}
		}()

		if err = ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}
