package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusClientClosedRequest answers a request whose caller went away.
const StatusClientClosedRequest = 499

// Status maps an error to the HTTP status code handlers answer with.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict, KindInsufficientStock:
		return fiber.StatusConflict
	case KindUnavailable:
		return fiber.StatusServiceUnavailable
	case KindTimeout:
		return fiber.StatusGatewayTimeout
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body.
func Respond(c *fiber.Ctx, err error) error {
	body := fiber.Map{
		"error": err.Error(),
		"kind":  KindOf(err).String(),
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		body["available"] = stock.Available
		body["requested"] = stock.Requested
	}
	return c.Status(Status(err)).JSON(body)
}
