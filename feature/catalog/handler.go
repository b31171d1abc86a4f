package catalog

import (
	"sapataria/core/apperror"
	"sapataria/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reference values.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/catalog")
	group.Get("/categories/:id/subcategories", h.HandleListSubcategories)
	group.Post("/categories/:id/subcategories", h.HandleGetOrCreateSubcategory)
	group.Get("/:dimension", h.HandleList)
	group.Post("/:dimension", h.HandleGetOrCreate)
}

type nameRequest struct {
	Name string `json:"name"`
}

// HandleList lists the values of a dimension.
// @Summary List reference values
// @Tags catalog
// @Produce json
// @Param dimension path string true "brands, categories, colors, sizes, suppliers or warehouses"
// @Success 200 {array} Value
// @Failure 400 {object} map[string]string
// @Router /catalog/{dimension} [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	dim, ok := ParseDimension(c.Params("dimension"))
	if !ok {
		return apperror.Respond(c, apperror.InvalidInput("catalog", "unknown dimension %q", c.Params("dimension")))
	}
	values, err := h.service.List(c.UserContext(), dim)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(values)
}

// HandleGetOrCreate resolves a value, creating it when missing.
// @Summary Get or create a reference value
// @Tags catalog
// @Accept json
// @Produce json
// @Param dimension path string true "Dimension"
// @Param body body nameRequest true "Value name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /catalog/{dimension} [post]
func (h *Handler) HandleGetOrCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	dim, ok := ParseDimension(c.Params("dimension"))
	if !ok {
		return apperror.Respond(c, apperror.InvalidInput("catalog", "unknown dimension %q", c.Params("dimension")))
	}
	var req nameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("catalog", "invalid body: %v", err))
	}

	id, created, err := h.service.GetOrCreate(c.UserContext(), dim, req.Name)
	if err != nil {
		l.Warn("Get-or-create failed", zap.String("dimension", string(dim)), zap.Error(err))
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "created": created})
}

// HandleListSubcategories lists the subcategories of a category.
// @Summary List subcategories
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {array} Subcategory
// @Failure 404 {object} map[string]string
// @Router /catalog/categories/{id}/subcategories [get]
func (h *Handler) HandleListSubcategories(c *fiber.Ctx) error {
	categoryID, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("catalog", "invalid category id"))
	}
	subs, err := h.service.ListSubcategories(c.UserContext(), int64(categoryID))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(subs)
}

// HandleGetOrCreateSubcategory resolves a subcategory inside a category.
// @Summary Get or create a subcategory
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param body body nameRequest true "Subcategory name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /catalog/categories/{id}/subcategories [post]
func (h *Handler) HandleGetOrCreateSubcategory(c *fiber.Ctx) error {
	categoryID, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("catalog", "invalid category id"))
	}
	var req nameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("catalog", "invalid body: %v", err))
	}

	id, created, err := h.service.GetOrCreateSubcategory(c.UserContext(), int64(categoryID), req.Name)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "created": created})
}
