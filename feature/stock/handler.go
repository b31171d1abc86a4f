package stock

import (
	"sapataria/core/apperror"
	"sapataria/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the stock ledger.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the stock routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/stock")
	group.Post("/set", h.HandleSet)
	group.Post("/add", h.HandleAdd)
	group.Post("/remove", h.HandleRemove)
	group.Post("/sell", h.HandleSell)
	group.Post("/register", h.HandleRegister)
	group.Get("/:gtin", h.HandleDetail)
	group.Delete("/:variant/:warehouse", h.HandleDelete)

	app.Get("/warehouses/:id/stock", h.HandleListWarehouse)
}

type mutationRequest struct {
	VariantID   int64 `json:"variant_id"`
	WarehouseID int64 `json:"warehouse_id"`
	Quantity    int   `json:"quantity"`
}

type sellRequest struct {
	GTIN        string `json:"gtin"`
	Quantity    int    `json:"quantity"`
	WarehouseID int64  `json:"warehouse_id"`
}

func parseMutation(c *fiber.Ctx) (mutationRequest, error) {
	var req mutationRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperror.InvalidInput("stock", "invalid body: %v", err)
	}
	return req, nil
}

// HandleSet sets an absolute quantity.
// @Summary Set stock
// @Tags stock
// @Accept json
// @Produce json
// @Param body body mutationRequest true "Variant, warehouse and quantity"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /stock/set [post]
func (h *Handler) HandleSet(c *fiber.Ctx) error {
	req, err := parseMutation(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := h.service.SetStock(c.UserContext(), req.VariantID, req.WarehouseID, req.Quantity); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"quantity": req.Quantity})
}

// HandleAdd adds units to a stock row.
// @Summary Add stock
// @Tags stock
// @Accept json
// @Produce json
// @Param body body mutationRequest true "Variant, warehouse and delta"
// @Success 200 {object} map[string]interface{}
// @Router /stock/add [post]
func (h *Handler) HandleAdd(c *fiber.Ctx) error {
	req, err := parseMutation(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	qty, err := h.service.AddStock(c.UserContext(), req.VariantID, req.WarehouseID, req.Quantity)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"quantity": qty})
}

// HandleRemove removes units from a stock row.
// @Summary Remove stock
// @Tags stock
// @Accept json
// @Produce json
// @Param body body mutationRequest true "Variant, warehouse and delta"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /stock/remove [post]
func (h *Handler) HandleRemove(c *fiber.Ctx) error {
	req, err := parseMutation(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	qty, err := h.service.RemoveStock(c.UserContext(), req.VariantID, req.WarehouseID, req.Quantity)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"quantity": qty})
}

// HandleSell removes sold units of a GTIN.
// @Summary Sell by GTIN
// @Tags stock
// @Accept json
// @Produce json
// @Param body body sellRequest true "GTIN, quantity and warehouse"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]interface{}
// @Router /stock/sell [post]
func (h *Handler) HandleSell(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req sellRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("stock", "invalid body: %v", err))
	}
	qty, err := h.service.Sell(c.UserContext(), req.GTIN, req.Quantity, req.WarehouseID)
	if err != nil {
		l.Warn("Sale rejected", zap.String("gtin", req.GTIN), zap.Error(err))
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"gtin": req.GTIN, "quantity": qty})
}

// HandleRegister registers a product with an initial quantity.
// @Summary Register a product
// @Tags stock
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Product"
// @Success 200 {object} RegisterResult
// @Router /stock/register [post]
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("stock", "invalid body: %v", err))
	}
	res, err := h.service.Register(c.UserContext(), req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(res)
}

// HandleDetail returns a variant with its stock per warehouse.
// @Summary Stock detail by GTIN
// @Tags stock
// @Produce json
// @Param gtin path string true "GTIN"
// @Success 200 {object} Detail
// @Failure 404 {object} map[string]string
// @Router /stock/{gtin} [get]
func (h *Handler) HandleDetail(c *fiber.Ctx) error {
	d, err := h.service.Detail(c.UserContext(), c.Params("gtin"))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(d)
}

// HandleDelete deletes a stock row, and the variant when it was the last one.
// @Summary Delete a stock row
// @Tags stock
// @Produce json
// @Param variant path int true "Variant ID"
// @Param warehouse path int true "Warehouse ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /stock/{variant}/{warehouse} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	variantID, err := c.ParamsInt("variant")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("stock", "invalid variant id"))
	}
	warehouseID, err := c.ParamsInt("warehouse")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("stock", "invalid warehouse id"))
	}
	deleted, err := h.service.DeleteStockRow(c.UserContext(), int64(variantID), int64(warehouseID))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"variant_deleted": deleted})
}

// HandleListWarehouse lists the stock held in one warehouse.
// @Summary Warehouse stock
// @Tags stock
// @Produce json
// @Param id path int true "Warehouse ID"
// @Success 200 {array} WarehouseRow
// @Router /warehouses/{id}/stock [get]
func (h *Handler) HandleListWarehouse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("stock", "invalid warehouse id"))
	}
	rows, err := h.service.ListWarehouse(c.UserContext(), int64(id))
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(rows)
}
