package webhook

import (
	"context"
	"fmt"
	"strconv"

	"sapataria/core/apperror"
	"sapataria/core/audit"
	"sapataria/core/metrics"
	"sapataria/core/reconcile"
	"sapataria/feature/stock"

	"go.uber.org/zap"
)

// Result summarizes how an order was handled.
type Result struct {
	OrderID   int64             `json:"order_id"`
	Ignored   bool              `json:"ignored"`
	Processed int               `json:"processed"`
	Total     int               `json:"total"`
	Message   string            `json:"message"`
	Report    *reconcile.Report `json:"report,omitempty"`
}

// Service turns order line items into sales against one warehouse.
type Service struct {
	stock       *stock.Service
	warehouseID int64
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewService creates a webhook service selling from warehouseID.
func NewService(st *stock.Service, warehouseID int64, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{stock: st, warehouseID: warehouseID, logger: logger, metrics: m}
}

// HandleOrder sells every identifiable line item of a processable order. A failing
// line item is logged and skipped; it never fails the order.
func (s *Service) HandleOrder(ctx context.Context, order Order) (*Result, error) {
	res := &Result{OrderID: order.ID, Total: len(order.LineItems)}
	if !order.Processable() {
		res.Ignored = true
		res.Message = fmt.Sprintf("order status %q is not processed", order.Status)
		s.logger.Info("Ignoring order", zap.Int64("order_id", order.ID), zap.String("status", order.Status))
		return res, nil
	}

	rows := make([]reconcile.Row, 0, len(order.LineItems))
	for i, li := range order.LineItems {
		rows = append(rows, reconcile.Row{Index: i + 1, Fields: map[string]string{
			"gtin":     li.GTIN(),
			"quantity": strconv.Itoa(li.Quantity),
			"name":     li.Name,
		}})
	}

	ctx = audit.WithActor(ctx, fmt.Sprintf("woocommerce:order:%d", order.ID))
	spec := &reconcile.Spec{
		Adapter: &sellAdapter{stock: s.stock, warehouseID: s.warehouseID},
		Logger:  s.logger.With(zap.Int64("order_id", order.ID)),
		Metrics: s.metrics,
	}
	report, err := reconcile.Run(ctx, spec, rows, reconcile.Options{Confirmed: true})
	if err != nil {
		return nil, err
	}

	for _, f := range report.Failures() {
		if f.Outcome == reconcile.OutcomeSkippedNoKey {
			s.logger.Warn("Line item without GTIN", zap.Int64("order_id", order.ID), zap.String("name", f.Fields["name"]))
		}
	}

	res.Report = report
	res.Processed = report.Tally.OK
	if res.Processed == 0 {
		res.Message = "no line item with a valid GTIN was processed"
	} else {
		res.Message = fmt.Sprintf("processed %d of %d items", res.Processed, res.Total)
	}
	return res, nil
}

// sellAdapter sells one line item per row. The GTIN is the trimmed SKU or meta
// value without digit normalization, matching how the store keys variants.
type sellAdapter struct {
	stock       *stock.Service
	warehouseID int64
}

func (a *sellAdapter) Name() string { return "woocommerce_sale" }

func (a *sellAdapter) Key(row reconcile.Row) (string, error) {
	gtin := row.Get("gtin")
	if gtin == "" {
		return "", reconcile.ErrNoKey
	}
	return gtin, nil
}

func (a *sellAdapter) Validate(row reconcile.Row, _ string) error {
	q, err := strconv.Atoi(row.Get("quantity"))
	if err != nil || q <= 0 {
		return apperror.InvalidInput("webhook.Validate", "quantity must be positive, got %q", row.Get("quantity"))
	}
	return nil
}

func (a *sellAdapter) Apply(ctx context.Context, row reconcile.Row, gtin string) (reconcile.Effects, error) {
	q, _ := strconv.Atoi(row.Get("quantity"))
	if _, err := a.stock.Sell(ctx, gtin, q, a.warehouseID); err != nil {
		return nil, err
	}
	return reconcile.Effects{"units_sold": q}, nil
}
