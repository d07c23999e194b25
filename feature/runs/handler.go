package runs

import (
	"profile-ingest/core/logger"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/store"

	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the run routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/runs")
	group.Get("/", h.HandleListRuns)
	group.Get("/:id", h.HandleGetRun)
}

// HandleListRuns lists the caller's runs.
// @Summary List Runs
// @Description List the caller's ingest runs, newest first.
// @Tags runs
// @Produce json
// @Param status query string false "Filter by status (running, completed, failed)"
// @Param limit query int false "Maximum number of runs" default(50)
// @Success 200 {array} reconcile.RunRecord "Runs"
// @Router /runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	principal, ok := reconcile.ContextPrincipal{}.CurrentPrincipal(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	filter := store.RunFilter{
		Status: reconcile.RunStatus(c.Query("status")),
		Limit:  c.QueryInt("limit", 50),
	}
	runs, err := h.service.List(c.UserContext(), principal, filter)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Run listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}

// HandleGetRun returns one of the caller's runs.
// @Summary Get Run
// @Description Get an ingest run with its statistics.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} reconcile.RunRecord "Run"
// @Failure 404 {object} map[string]string "Not found"
// @Router /runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	principal, ok := reconcile.ContextPrincipal{}.CurrentPrincipal(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	run, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if eris.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Run lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}
