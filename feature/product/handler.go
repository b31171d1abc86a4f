package product

import (
	"sapataria/core/apperror"
	"sapataria/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for models and variants.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the product routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/models", h.HandleResolveModel)
	app.Get("/models/:id", h.HandleGetModel)
	app.Patch("/models/:id", h.HandleUpdateModel)

	app.Get("/variants", h.HandleSearch)
	app.Get("/variants/:gtin", h.HandleGetVariant)
	app.Post("/variants", h.HandleCreateVariant)
	app.Patch("/variants/:id", h.HandleUpdateVariant)

	app.Put("/products/:gtin", h.HandleUpdateProduct)
}

type resolveModelRequest struct {
	ModelKey
	ExternalRef *string `json:"external_ref"`
}

type productUpdateRequest struct {
	Model   ModelUpdate   `json:"model"`
	Variant VariantUpdate `json:"variant"`
}

// HandleResolveModel finds a model by its identity, creating it when missing.
// @Summary Resolve or create a model
// @Tags products
// @Accept json
// @Produce json
// @Param body body resolveModelRequest true "Model identity"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /models [post]
func (h *Handler) HandleResolveModel(c *fiber.Ctx) error {
	var req resolveModelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid body: %v", err))
	}
	id, created, err := h.service.ResolveOrCreateModel(c.UserContext(), req.ModelKey, req.ExternalRef)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "created": created})
}

// HandleGetModel returns a model.
// @Summary Get a model
// @Tags products
// @Produce json
// @Param id path int true "Model ID"
// @Success 200 {object} Model
// @Failure 404 {object} map[string]string
// @Router /models/{id} [get]
func (h *Handler) HandleGetModel(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid model id"))
	}
	m, err := h.service.GetModel(c.UserContext(), int64(id))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(m)
}

// HandleUpdateModel edits a model.
// @Summary Update a model
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Model ID"
// @Param body body ModelUpdate true "Fields to change"
// @Success 200 {object} Model
// @Failure 409 {object} map[string]string
// @Router /models/{id} [patch]
func (h *Handler) HandleUpdateModel(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid model id"))
	}
	var upd ModelUpdate
	if err := c.BodyParser(&upd); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid body: %v", err))
	}
	m, err := h.service.UpdateModel(c.UserContext(), int64(id), upd)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(m)
}

// HandleSearch finds variants by field and value.
// @Summary Search variants
// @Tags products
// @Produce json
// @Param field query string true "gtin, model_ref, external_ref_a or external_ref_b"
// @Param value query string true "Value to match"
// @Success 200 {array} VariantView
// @Router /variants [get]
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	views, err := h.service.SearchVariants(c.UserContext(), SearchField(c.Query("field", string(SearchGTIN))), c.Query("value"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(views)
}

// HandleGetVariant returns the joined view of a variant.
// @Summary Get a variant by GTIN
// @Tags products
// @Produce json
// @Param gtin path string true "GTIN"
// @Success 200 {object} VariantView
// @Failure 404 {object} map[string]string
// @Router /variants/{gtin} [get]
func (h *Handler) HandleGetVariant(c *fiber.Ctx) error {
	view, err := h.service.FindVariantByGTIN(c.UserContext(), c.Params("gtin"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(view)
}

// HandleCreateVariant creates a variant.
// @Summary Create a variant
// @Tags products
// @Accept json
// @Produce json
// @Param body body NewVariant true "Variant"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /variants [post]
func (h *Handler) HandleCreateVariant(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var nv NewVariant
	if err := c.BodyParser(&nv); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid body: %v", err))
	}
	id, err := h.service.CreateVariant(c.UserContext(), nv)
	if err != nil {
		l.Warn("Variant creation failed", zap.String("gtin", nv.GTIN), zap.Error(err))
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// HandleUpdateVariant edits a variant.
// @Summary Update a variant
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Variant ID"
// @Param body body VariantUpdate true "Fields to change"
// @Success 200 {object} Variant
// @Router /variants/{id} [patch]
func (h *Handler) HandleUpdateVariant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid variant id"))
	}
	var upd VariantUpdate
	if err := c.BodyParser(&upd); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid body: %v", err))
	}
	v, err := h.service.UpdateVariant(c.UserContext(), int64(id), upd)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(v)
}

// HandleUpdateProduct edits a variant and its model together.
// @Summary Update product details
// @Tags products
// @Accept json
// @Produce json
// @Param gtin path string true "GTIN"
// @Param body body productUpdateRequest true "Model and variant changes"
// @Success 200 {object} VariantView
// @Router /products/{gtin} [put]
func (h *Handler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req productUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("product", "invalid body: %v", err))
	}
	view, err := h.service.UpdateProductDetails(c.UserContext(), c.Params("gtin"), req.Model, req.Variant)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(view)
}
