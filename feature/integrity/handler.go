package integrity

import (
	"sapataria/core/apperror"
	"sapataria/core/logger"

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
	group.Get("/invariants", h.HandleInvariantCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/storage", h.HandleStorageCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Runs the invariant, schema and storage checks and returns one combined report.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]interface{})

	if inv, err := h.service.CheckInvariants(ctx); err != nil {
		report["invariants"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["invariants"] = inv
	}

	if sch, err := h.service.CheckSchema(); err != nil {
		report["schema"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = sch
	}

	if h.service.HasStorage() {
		if st, err := h.service.CheckStorage(ctx); err != nil {
			report["storage"] = fiber.Map{"status": "error", "error": err.Error()}
		} else {
			report["storage"] = st
		}
	} else {
		report["storage"] = fiber.Map{"status": "disabled"}
	}

	return c.JSON(report)
}

// HandleInvariantCheck counts rows that break the inventory rules.
// @Summary Check Invariants
// @Description Reports orphan variants, negative quantities, dangling stock rows and duplicated identities. With fix=true orphan variants are deleted first.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Delete orphan variants"
// @Success 200 {object} checks.InvariantReport
// @Failure 503 {object} map[string]string
// @Router /integrity/invariants [get]
func (h *Handler) HandleInvariantCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	ctx := c.UserContext()

	if c.Query("fix") == "true" {
		n, err := h.service.PurgeOrphans(ctx)
		if err != nil {
			l.Error("Orphan purge failed", zap.Error(err))
			return apperror.Respond(c, err)
		}
		l.Info("Orphan purge finished", zap.Int64("deleted", n))
	}

	report, err := h.service.CheckInvariants(ctx)
	if err != nil {
		l.Error("Invariant check failed", zap.Error(err))
		return apperror.Respond(c, err)
	}
	if !report.OK {
		l.Warn("Invariant violations detected",
			zap.Int("orphans", len(report.OrphanVariants)),
			zap.Int64("negative", report.NegativeQuantities),
			zap.Int64("dangling", report.DanglingStockRows))
	}
	return c.JSON(report)
}

// HandleSchemaCheck checks the database schema.
// @Summary Check Schema
// @Description Checks that every mapped table and column exists in the connected database.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport
// @Failure 500 {object} map[string]string
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleStorageCheck checks and optionally creates the import bucket.
// @Summary Check Storage
// @Description Checks that the import bucket exists and counts stored reject reports. Optionally creates the bucket.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create the bucket when missing"
// @Success 200 {object} checks.StorageReport
// @Failure 500 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	if !h.service.HasStorage() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "object storage is not configured"})
	}
	ctx := c.UserContext()

	report, err := h.service.CheckStorage(ctx)
	if err != nil {
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.Exists && c.Query("fix") == "true" {
		l.Info("Attempting to create missing bucket", zap.String("bucket", report.Bucket))
		if err := h.service.FixStorage(ctx); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create bucket",
				"details": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "fixed", "bucket": report.Bucket})
	}

	return c.JSON(report)
}
