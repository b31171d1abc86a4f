package importer

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"sapataria/core/apperror"
	"sapataria/core/logger"
	"sapataria/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for imports, bulk updates and exports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the importer routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/import", h.HandleImport)
	app.Post("/import/object", h.HandleImportObject)
	app.Post("/stock/bulk", h.HandleBulkUpdate)
	app.Get("/warehouses/:id/export", h.HandleExport)
}

type batchResponse struct {
	Report     *reconcile.Report     `json:"report"`
	Failures   []reconcile.RowResult `json:"failures"`
	RejectsKey string                `json:"rejects_key,omitempty"`
}

type objectRequest struct {
	Key    string `json:"key"`
	Sheet  string `json:"sheet"`
	DryRun bool   `json:"dry_run"`
}

type bulkRequest struct {
	Op          string `json:"op" form:"op"`
	WarehouseID int64  `json:"warehouse_id" form:"warehouse_id"`
	Quantity    int    `json:"quantity" form:"quantity"`
	Codes       string `json:"codes" form:"codes"`
	DryRun      bool   `json:"dry_run" form:"dry_run"`
}

func readUpload(fh *multipart.FileHeader) (io.Reader, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func (h *Handler) respond(c *fiber.Ctx, report *reconcile.Report, runErr error) error {
	l := logger.WithRayID(h.service.logger, c)
	if runErr != nil {
		l.Error("Batch aborted", zap.String("adapter", report.Adapter), zap.Error(runErr))
		return apperror.Respond(c, runErr)
	}
	key, err := h.service.StoreRejects(c.UserContext(), report)
	if err != nil {
		l.Warn("Failed to upload rejects", zap.Error(err))
	}
	return c.JSON(batchResponse{Report: report, Failures: report.Failures(), RejectsKey: key})
}

// HandleImport imports an uploaded workbook.
// @Summary Import a workbook
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Param sheet query string false "Sheet name"
// @Param dry_run query bool false "Plan only"
// @Success 200 {object} batchResponse
// @Failure 400 {object} map[string]string
// @Router /import [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("importer", "file is required"))
	}
	r, err := readUpload(fh)
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("importer", "unreadable upload: %v", err))
	}
	rows, err := h.service.ParseWorkbook(r, c.Query("sheet"))
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("importer", "%v", err))
	}

	report, err := h.service.Import(c.UserContext(), rows, reconcile.Options{
		DryRun:    c.QueryBool("dry_run"),
		Confirmed: true,
	})
	return h.respond(c, report, err)
}

// HandleImportObject imports a workbook already stored in the bucket.
// @Summary Import a stored workbook
// @Tags import
// @Accept json
// @Produce json
// @Param body body objectRequest true "Object key"
// @Success 200 {object} batchResponse
// @Router /import/object [post]
func (h *Handler) HandleImportObject(c *fiber.Ctx) error {
	var req objectRequest
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return apperror.Respond(c, apperror.InvalidInput("importer", "key is required"))
	}
	rows, err := h.service.LoadObject(c.UserContext(), req.Key, req.Sheet)
	if err != nil {
		return apperror.Respond(c, &apperror.Error{Kind: apperror.KindUnavailable, Op: "importer", Msg: "failed to load workbook", Err: err})
	}
	report, err := h.service.Import(c.UserContext(), rows, reconcile.Options{DryRun: req.DryRun, Confirmed: true})
	return h.respond(c, report, err)
}

// HandleBulkUpdate applies one stock operation to a list of codes or an uploaded workbook.
// @Summary Bulk stock update
// @Tags import
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param body body bulkRequest true "Operation, warehouse, quantity and codes"
// @Success 200 {object} batchResponse
// @Router /stock/bulk [post]
func (h *Handler) HandleBulkUpdate(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.InvalidInput("importer", "invalid body: %v", err))
	}
	op, err := ParseOp(req.Op)
	if err != nil {
		return apperror.Respond(c, err)
	}

	rows := ParseCodes(req.Codes)
	if fh, err := c.FormFile("file"); err == nil {
		r, err := readUpload(fh)
		if err != nil {
			return apperror.Respond(c, apperror.InvalidInput("importer", "unreadable upload: %v", err))
		}
		if rows, err = h.service.ParseWorkbook(r, c.FormValue("sheet")); err != nil {
			return apperror.Respond(c, apperror.InvalidInput("importer", "%v", err))
		}
	}

	report, err := h.service.BulkUpdate(c.UserContext(), rows,
		UpdateOptions{Op: op, WarehouseID: req.WarehouseID, Quantity: req.Quantity},
		reconcile.Options{DryRun: req.DryRun, Confirmed: true})
	return h.respond(c, report, err)
}

// HandleExport downloads the stock of a warehouse as xlsx.
// @Summary Export warehouse stock
// @Tags import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Warehouse ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /warehouses/{id}/export [get]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.InvalidInput("importer", "invalid warehouse id"))
	}
	var buf bytes.Buffer
	if err := h.service.ExportWarehouse(c.UserContext(), int64(id), &buf); err != nil {
		return apperror.Respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="warehouse-%d.xlsx"`, id))
	return c.Send(buf.Bytes())
}
