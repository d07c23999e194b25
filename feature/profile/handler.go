package profile

import (
	"bytes"
	"encoding/json"

	"profile-ingest/core/logger"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/store"

	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for profiles.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/profiles")
	group.Post("/batch", h.HandleIngestBatch)
	group.Get("/:key", h.HandleGetProfile)
	group.Get("/:key/changes", h.HandleGetChanges)
	group.Get("/:key/assets", h.HandleGetAssets)
}

// BatchFailure is returned when a batch aborts; Run carries the partial statistics.
type BatchFailure struct {
	Error string              `json:"error"`
	Run   reconcile.RunRecord `json:"run"`
}

// HandleIngestBatch reconciles a batch of raw profile records as one run.
// @Summary Ingest Profile Batch
// @Description Reconcile a JSON array of raw profile records. The run is returned with its statistics; a failed run is returned with the statistics gathered before the failure.
// @Tags profiles
// @Accept json
// @Produce json
// @Param kind query string false "Run kind (full, incremental)" default(incremental)
// @Param records body []map[string]interface{} true "Raw profile records"
// @Success 200 {object} reconcile.RunRecord "Completed run"
// @Failure 400 {object} map[string]string "Malformed batch"
// @Failure 401 {object} map[string]string "No principal"
// @Failure 500 {object} BatchFailure "Run failed"
// @Router /profiles/batch [post]
func (h *Handler) HandleIngestBatch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	kind := reconcile.RunKind(c.Query("kind", string(reconcile.RunIncremental)))
	if !kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kind must be full or incremental"})
	}

	records, err := DecodeJSON(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	run, err := h.service.Ingest(c.UserContext(), kind, records)
	switch {
	case err == nil:
		return c.JSON(run)
	case eris.Is(err, reconcile.ErrAuthenticationRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case run.ID == "":
		l.Error("Batch could not start", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Batch failed", zap.String("run_id", run.ID), zap.Error(err))
		status := fiber.StatusInternalServerError
		if eris.Is(err, reconcile.ErrInvalidRecord) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(BatchFailure{Error: err.Error(), Run: run})
	}
}

// DecodeJSON decodes a JSON array of raw records, keeping numbers exact.
func DecodeJSON(body []byte) ([]reconcile.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var records []reconcile.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, eris.Wrap(err, "profile: batch must be a JSON array of objects")
	}
	return records, nil
}

// HandleGetProfile returns a stored profile.
// @Summary Get Profile
// @Description Get the stored state of a profile owned by the caller.
// @Tags profiles
// @Produce json
// @Param key path string true "Identity key"
// @Success 200 {object} reconcile.StoredRecord "Stored profile"
// @Failure 404 {object} map[string]string "Not found"
// @Router /profiles/{key} [get]
func (h *Handler) HandleGetProfile(c *fiber.Ctx) error {
	principal, ok := reconcile.ContextPrincipal{}.CurrentPrincipal(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	rec, err := h.service.Record(c.UserContext(), principal, c.Params("key"))
	if err != nil {
		return h.readError(c, err)
	}
	return c.JSON(rec)
}

// HandleGetChanges returns the change log of a profile.
// @Summary Get Profile Changes
// @Description List the field-level changes recorded for a profile, oldest first.
// @Tags profiles
// @Produce json
// @Param key path string true "Identity key"
// @Success 200 {array} reconcile.ChangeEntry "Change log"
// @Failure 404 {object} map[string]string "Not found"
// @Router /profiles/{key}/changes [get]
func (h *Handler) HandleGetChanges(c *fiber.Ctx) error {
	principal, ok := reconcile.ContextPrincipal{}.CurrentPrincipal(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	changes, err := h.service.Changes(c.UserContext(), principal, c.Params("key"))
	if err != nil {
		return h.readError(c, err)
	}
	return c.JSON(changes)
}

// HandleGetAssets returns the asset versions of a profile.
// @Summary Get Profile Assets
// @Description List the current asset versions of a profile, or every version with all=true.
// @Tags profiles
// @Produce json
// @Param key path string true "Identity key"
// @Param all query bool false "Include superseded versions"
// @Success 200 {array} reconcile.AssetVersion "Asset versions"
// @Failure 404 {object} map[string]string "Not found"
// @Router /profiles/{key}/assets [get]
func (h *Handler) HandleGetAssets(c *fiber.Ctx) error {
	principal, ok := reconcile.ContextPrincipal{}.CurrentPrincipal(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	assets, err := h.service.Assets(c.UserContext(), principal, c.Params("key"), c.QueryBool("all", false))
	if err != nil {
		return h.readError(c, err)
	}
	return c.JSON(assets)
}

func (h *Handler) readError(c *fiber.Ctx, err error) error {
	if eris.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	logger.WithRayID(h.service.logger, c).Error("Profile read failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
