// Package web provides the HTTP handlers of the workflow REST API.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/palette"
	"github.com/arcsuite/arcflow/pkg/registry"
	"github.com/arcsuite/arcflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

type APIHandlers struct {
	workflowService *services.Workflow
	registry        *registry.Registry
	logger          *slog.Logger
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	registry *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		registry:        registry,
		logger:          logger.With("module", "web"),
	}
}

// Routes registers the workflow, palette and health endpoints on app.
func (h *APIHandlers) Routes(app fiber.Router) {
	w := app.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)

	app.Get("/palette", h.GetPalette)
	app.Get("/palette/:subtype", h.GetNodeDefinition)

	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(TotalCountHeader, strconv.FormatInt(result.TotalCount, 10))

	if result.Workflows == nil {
		return c.JSON([]*models.Workflow{})
	}

	return c.JSON(result.Workflows)
}

// parseListWorkflowsRequest reads the pagination, filter and sort query parameters.
func parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req models.CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), req, c.Get(UserIDHeader))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req models.UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), id, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetPalette(c fiber.Ctx) error {
	definitions := h.registry.Definitions()

	templates := make([]palette.NodeTemplate, 0, len(definitions))
	for _, def := range definitions {
		templates = append(templates, def.Template)
	}

	return c.JSON(templates)
}

func (h *APIHandlers) GetNodeDefinition(c fiber.Ctx) error {
	subtype := models.Subtype(c.Params("subtype"))

	def, ok := h.registry.Lookup(subtype)
	if !ok {
		problem := problems.NewStatusProblem(fiber.StatusNotFound).
			WithInstance(c.Path()).
			WithType("node_subtype_not_found").
			WithDetail("node subtype " + string(subtype) + " not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)
	}

	return c.JSON(NodeDefinitionResponse{NodeTemplate: def.Template, Schema: def.Schema})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	resp := HealthResponse{
		Status:  "unhealthy",
		Message: "Arcflow API is unhealthy",
		Checkers: map[string]string{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		Timestamp: time.Now().UTC(),
	}

	httpStatus := http.StatusServiceUnavailable

	if regOk && repOk {
		resp.Status = "healthy"
		resp.Message = "Arcflow API is healthy"
		httpStatus = http.StatusOK
	} else {
		h.logger.WarnContext(c.Context(), "health check failed", "registry", registryCheck, "repository", repositoryCheck)
	}

	return c.Status(httpStatus).JSON(resp)
}
