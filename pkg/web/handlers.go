// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/registry"
	"github.com/dukex/flowcanvas/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// UploadField is the multipart field read by POST /files/upload.
const UploadField = "file"

var errInvalidJSON = errors.New("invalid JSON format")

type APIHandlers struct {
	workflowService   *services.Workflow
	activationService *services.Activation
	executionService  *services.Execution
	fileService       *services.File
	nodeService       *services.Node
	templateService   *services.Template
	validator         *validator.Validate
	registry          *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	activationService *services.Activation,
	executionService *services.Execution,
	fileService *services.File,
	nodeService *services.Node,
	templateService *services.Template,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService:   workflowService,
		activationService: activationService,
		executionService:  executionService,
		fileService:       fileService,
		nodeService:       nodeService,
		templateService:   templateService,
		validator:         validator,
		registry:          registry,
	}
}

// Register mounts every endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.SaveWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/activate", h.ActivateWorkflow)
	w.Post("/:id/deactivate", h.DeactivateWorkflow)
	w.Get("/:id/executions", h.GetWorkflowExecutions)

	e := router.Group("/executions")
	e.Post("/:id/execute", h.ExecuteWorkflow)
	e.Get("/:id", h.GetExecution)
	e.Patch("/:id", h.UpdateExecution)

	n := router.Group("/nodes")
	n.Get("/", h.GetNodeTemplates)
	n.Get("/categories", h.GetNodeCategories)
	n.Get("/:type", h.GetNodeTemplate)

	f := router.Group("/files")
	f.Get("/", h.GetFiles)
	f.Post("/upload", h.UploadFile)
	f.Get("/:id", h.GetFile)
	f.Get("/:id/content", h.GetFileContent)
	f.Delete("/:id", h.DeleteFile)

	t := router.Group("/templates")
	t.Get("/", h.GetWorkflowTemplates)
	t.Get("/:id", h.GetWorkflowTemplate)
	t.Post("/:id/use", h.UseWorkflowTemplate)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListWorkflows(c.Context(), services.ListWorkflowsRequest{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowcanvas API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Flowcanvas API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// bind decodes the JSON body into req and validates it.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return errInvalidJSON
	}

	return h.validator.Struct(req)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req SaveWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), req.ToService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// SaveWorkflow replaces the workflow stored under :id, creating it if needed.
func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	var req SaveWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	saved, err := h.workflowService.Save(c.Context(), c.Params("id"), req.ToService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	workflow, err := h.activationService.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	workflow, err := h.activationService.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.executionService.ListByWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

// ExecuteWorkflow starts a run of workflow :id. The optional body is the run
// input.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var input any

	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			return badRequest(c, errInvalidJSON.Error())
		}
	}

	execution, err := h.executionService.Execute(c.Context(), c.Params("id"), input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executionService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) UpdateExecution(c fiber.Ctx) error {
	var req UpdateExecutionRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.Update(c.Context(), c.Params("id"), req.ToService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetNodeTemplates(c fiber.Ctx) error {
	templates := h.nodeService.Templates(c.Query("category"))
	if templates == nil {
		templates = []*models.NodeTemplate{}
	}

	return c.JSON(templates)
}

func (h *APIHandlers) GetNodeCategories(c fiber.Ctx) error {
	return c.JSON(h.nodeService.Categories())
}

func (h *APIHandlers) GetNodeTemplate(c fiber.Ctx) error {
	template, err := h.nodeService.Template(c.Params("type"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) UploadFile(c fiber.Ctx) error {
	header, err := c.FormFile(UploadField)
	if err != nil {
		return badRequest(c, "Multipart field '"+UploadField+"' is required")
	}

	if header.Size > h.fileService.MaxSize() {
		return handleServiceError(c, services.ErrFileTooLarge)
	}

	f, err := header.Open()
	if err != nil {
		return internalError(c, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, h.fileService.MaxSize()+1))
	if err != nil {
		return internalError(c, err)
	}

	info, err := h.fileService.Upload(c.Context(), header.Filename, content)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(info)
}

func (h *APIHandlers) GetFile(c fiber.Ctx) error {
	info, err := h.fileService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(info)
}

func (h *APIHandlers) GetFileContent(c fiber.Ctx) error {
	info, content, err := h.fileService.Content(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Attachment(info.Filename)
	c.Set(fiber.HeaderContentType, info.MimeType)

	return c.Send(content)
}

func (h *APIHandlers) GetFiles(c fiber.Ctx) error {
	files, err := h.fileService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	if files == nil {
		files = []*models.FileInfo{}
	}

	return c.JSON(files)
}

func (h *APIHandlers) DeleteFile(c fiber.Ctx) error {
	if err := h.fileService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetWorkflowTemplates lists the gallery. category, difficulty and search
// narrow the result; "all" means no filter.
func (h *APIHandlers) GetWorkflowTemplates(c fiber.Ctx) error {
	return c.JSON(h.templateService.List(gallery.Filter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Search:     c.Query("search"),
	}))
}

func (h *APIHandlers) GetWorkflowTemplate(c fiber.Ctx) error {
	template, err := h.templateService.Get(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

// UseWorkflowTemplate creates a workflow from template :id. The optional body
// names the new workflow.
func (h *APIHandlers) UseWorkflowTemplate(c fiber.Ctx) error {
	var req UseTemplateRequest

	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	workflow, err := h.templateService.Use(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}
