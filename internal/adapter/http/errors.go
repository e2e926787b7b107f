package http

import (
	"errors"

	"resume-builder/internal/adapter/repository"
	"resume-builder/internal/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       fiber.Map
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func NewAppError(status int, message string, data fiber.Map, cause error) *AppError {
	return &AppError{StatusCode: status, Message: message, Data: data, Cause: cause}
}

// toAppError maps domain failures onto HTTP statuses.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return NewAppError(fiber.StatusUnprocessableEntity, "validation failed", fiber.Map{"fields": verr.Fields}, err)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewAppError(fiberErr.Code, fiberErr.Message, nil, err)
	}

	switch {
	case errors.Is(err, domain.ErrNoSession):
		return NewAppError(fiber.StatusUnauthorized, "sign in to save your résumé", fiber.Map{"signInRequired": true}, err)
	case errors.Is(err, domain.ErrInvalidToken):
		return NewAppError(fiber.StatusUnauthorized, "invalid or expired sign-in link", nil, err)
	case errors.Is(err, domain.ErrBackendDisabled):
		return NewAppError(fiber.StatusServiceUnavailable, "saving is not available on this server", nil, err)
	case errors.Is(err, repository.ErrStoreUnavailable):
		return NewAppError(fiber.StatusServiceUnavailable, "document store temporarily unavailable", nil, err)
	case errors.Is(err, domain.ErrDelivery), domain.IsNetwork(err):
		return NewAppError(fiber.StatusBadGateway, "upstream service failed", nil, err)
	case errors.Is(err, domain.ErrMalformedEmail),
		errors.Is(err, domain.ErrUnknownTemplate),
		errors.Is(err, domain.ErrUnknownSection):
		return NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoArtifact):
		return NewAppError(fiber.StatusNotFound, err.Error(), nil, err)
	case errors.Is(err, domain.ErrCheckoutClosed),
		errors.Is(err, domain.ErrMethodLocked),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStalePhoto):
		return NewAppError(fiber.StatusConflict, err.Error(), nil, err)
	case errors.Is(err, domain.ErrPhotoTooLarge):
		return NewAppError(fiber.StatusRequestEntityTooLarge, err.Error(), nil, err)
	case errors.Is(err, domain.ErrUnsupportedPhoto):
		return NewAppError(fiber.StatusUnsupportedMediaType, err.Error(), nil, err)
	}
	return NewAppError(fiber.StatusInternalServerError, "internal server error", nil, err)
}

// ErrorHandler renders every handler error as {"error": message, ...data}.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := toAppError(err)
		if appErr.StatusCode >= 500 {
			logger.Error("request failed",
				zap.String("method", c.Method()), zap.String("path", c.Path()),
				zap.Int("status", appErr.StatusCode), zap.Error(err))
		}
		body := fiber.Map{"error": appErr.Message}
		for k, v := range appErr.Data {
			body[k] = v
		}
		return c.Status(appErr.StatusCode).JSON(body)
	}
}
