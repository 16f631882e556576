package web

import (
	"errors"

	"github.com/arcsuite/arcflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Problem types returned in the "type" member of error responses.
const (
	ProblemValidation = "validation_error"
	ProblemNotFound   = "workflow_not_found"
	ProblemConflict   = "conflict"
	ProblemInternal   = "internal_error"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType(ProblemValidation).
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType(ProblemNotFound).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusConflict).
		WithInstance(c.Path()).
		WithType(ProblemConflict).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType(ProblemInternal).
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service layer errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	var serviceErr *services.ServiceError

	detail := err.Error()
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		detail = serviceErr.Message
	}

	switch {
	case services.IsValidationError(err):
		return badRequest(c, detail)
	case services.IsNotFoundError(err):
		return notFound(c, detail)
	case services.IsConflictError(err):
		return conflict(c, detail)
	default:
		return internalError(c, err)
	}
}
