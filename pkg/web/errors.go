package web

import (
	"errors"

	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/registry"
	"github.com/dukex/flowcanvas/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, kind, detail string) error {
	return problem(c, fiber.StatusNotFound, kind, detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError maps service and persistence errors to problem documents.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, services.ErrFileTooLarge):
		return problem(c, fiber.StatusRequestEntityTooLarge, "file_too_large", err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case persistence.IsExecutionNotFound(err):
		return notFound(c, "execution_not_found", "execution not found")

	case persistence.IsFileNotFound(err):
		return notFound(c, "file_not_found", "file not found")

	case errors.Is(err, registry.ErrTemplateNotFound):
		return notFound(c, "node_type_not_found", err.Error())

	case errors.Is(err, gallery.ErrTemplateNotFound):
		return notFound(c, "template_not_found", err.Error())

	default:
		return internalError(c, err)
	}
}

// ErrorHandler renders errors escaping a handler, such as fiber's own body
// limit and routing errors, as problem documents.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := "http_error"

		switch fe.Code {
		case fiber.StatusNotFound:
			kind = "not_found"
		case fiber.StatusRequestEntityTooLarge:
			kind = "file_too_large"
		case fiber.StatusMethodNotAllowed:
			kind = "method_not_allowed"
		}

		return problem(c, fe.Code, kind, fe.Message)
	}

	return handleServiceError(c, err)
}
