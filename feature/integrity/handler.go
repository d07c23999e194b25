package integrity

import (
	"profile-ingest/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/runs", h.HandleRunsCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Schema, Storage, Runs).
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]interface{})

	if schema, err := h.service.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schema
	}

	report["storage"] = h.service.CheckStorage(ctx)

	if runs, err := h.service.CheckRuns(ctx); err != nil {
		report["runs"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["runs"] = runs
	}

	return c.JSON(report)
}

// HandleSchemaCheck checks the database schema.
// @Summary Check Schema
// @Description Validates that every table carries the columns and declared types of the profile models.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckSchema()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleStorageCheck checks the asset bucket.
// @Summary Check Storage
// @Description Checks that the bucket serving s3:// assets exists and is reachable.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.StorageReport "Storage Report"
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	report := h.service.CheckStorage(c.UserContext())
	if report.Status == "error" {
		logger.WithRayID(h.service.logger, c).Warn("Storage check failed", zap.String("error", report.Error))
	}
	return c.JSON(report)
}

// HandleRunsCheck reports stale running runs.
// @Summary Check Runs
// @Description Counts runs still running and those past the reap age.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.RunsReport "Runs Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/runs [get]
func (h *Handler) HandleRunsCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckRuns(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Runs check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
