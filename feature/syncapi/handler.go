package syncapi

import (
	"errors"

	"netbox-geo/core/logger"
	"netbox-geo/core/record"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs and dataset uploads.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync API routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)

	group := app.Group("/sync")
	group.Post("/", h.HandleTriggerSync)
	group.Get("/status", h.HandleSyncStatus)

	app.Post("/datasets/:source", h.HandleUploadDataset)
}

// HandleHealth reports service liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleTriggerSync starts a sync run in the background. The optional
// dry_run query flag plans without applying.
func (h *Handler) HandleTriggerSync(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.service.logger, c)
	dryRun := c.QueryBool("dry_run")

	if err := h.service.StartRun(dryRun); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Error("sync trigger failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l.Info("sync run triggered", zap.Bool("dry_run", dryRun))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "started",
		"dry_run": dryRun,
	})
}

// HandleSyncStatus returns the current run state and the last report.
func (h *Handler) HandleSyncStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleUploadDataset stores a dataset snapshot for the given source.
func (h *Handler) HandleUploadDataset(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.service.logger, c)

	source := record.Source(c.Params("source"))
	if !source.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown source " + c.Params("source"),
		})
	}
	if len(c.Body()) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "empty dataset body",
		})
	}

	object, err := h.service.UploadDataset(c.Context(), source, c.Body())
	if err != nil {
		l.Error("dataset upload failed",
			zap.String("source", string(source)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"object": object,
		"bytes":  len(c.Body()),
	})
}
