package webhook

import (
	"encoding/json"
	"strings"

	"sapataria/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles WooCommerce webhook deliveries.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the webhook routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/webhook/woocommerce", h.HandleOrder)
}

// HandleOrder receives an order webhook and moves stock for its line items.
// Deliveries are acknowledged even when line items fail, so the sender does not retry the order.
// @Summary WooCommerce order webhook
// @Tags webhook
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param body body Order true "Order"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /webhook/woocommerce [post]
func (h *Handler) HandleOrder(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	if strings.Contains(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationForm) {
		if len(c.Request().PostArgs().Peek("webhook_id")) > 0 {
			return c.JSON(fiber.Map{"ok": true, "message": "ping received"})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"ok": false, "error": "form payload is not an order"})
	}

	body := c.Body()
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		l.Warn("Unreadable webhook payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid JSON payload"})
	}
	if _, ok := probe["webhook_id"]; ok && len(probe) == 1 {
		return c.JSON(fiber.Map{"ok": true, "message": "ping received"})
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil || order.ID == 0 || order.Status == "" {
		l.Warn("Invalid order payload", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"ok": false, "error": "payload is not an order"})
	}

	res, err := h.service.HandleOrder(c.UserContext(), order)
	if err != nil {
		l.Error("Order processing aborted", zap.Int64("order_id", order.ID), zap.Error(err))
		return c.JSON(fiber.Map{"ok": true, "message": "order received, processing failed"})
	}
	l.Info("Order processed",
		zap.Int64("order_id", order.ID),
		zap.Int("processed", res.Processed),
		zap.Int("total", res.Total))
	return c.JSON(fiber.Map{"ok": true, "message": res.Message, "processed": res.Processed, "total": res.Total})
}
