package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/logger"
)

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	var (
		fatal     *domain.FatalGenerationError
		provider  *domain.ProviderError
		transient *domain.TransientProviderError
		persist   *domain.PersistenceError
		invalid   *domain.ValidationError
		malformed *domain.MalformedOutputError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &fatal), errors.As(err, &provider), errors.As(err, &transient):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrVectorIndexUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &persist):
		return fiber.StatusInternalServerError
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownSchema),
		errors.Is(err, domain.ErrSchemaMismatch),
		errors.Is(err, domain.ErrDimensionMismatch),
		errors.As(err, &invalid),
		errors.As(err, &malformed):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Warn("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}
