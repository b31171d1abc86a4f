package stock

import (
	"context"
	"errors"
	"strings"

	"sapataria/core/apperror"
	"sapataria/core/audit"
	"sapataria/core/metrics"
	"sapataria/feature/catalog"
	"sapataria/feature/product"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns the stock ledger and the operations composed on top of it.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	products *product.Service
	audit    audit.Sink
	metrics  *metrics.Metrics
}

// NewService creates a stock service. sink and m may be nil.
func NewService(db *gorm.DB, logger *zap.Logger, products *product.Service, sink audit.Sink, m *metrics.Metrics) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{db: db, logger: logger, products: products, audit: sink, metrics: m}
}

// Sell removes quantity units of the variant with gtin from warehouseID and returns
// what is left. An unknown GTIN fails with NotFound and writes nothing.
func (s *Service) Sell(ctx context.Context, gtin string, quantity int, warehouseID int64) (int, error) {
	view, err := s.products.FindVariantByGTIN(ctx, gtin)
	if err != nil {
		return 0, err
	}
	left, err := s.RemoveStock(ctx, view.VariantID, warehouseID, quantity)
	if ise, ok := insufficient(err); ok {
		ise.GTIN = view.GTIN
	}
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Sold", zap.String("gtin", view.GTIN), zap.Int("quantity", quantity), zap.Int("left", left))
	return left, nil
}

// Register records a product with an initial quantity in one warehouse. A known GTIN
// only has its stock row set; otherwise the model is resolved and the variant created.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	const op = "stock.Register"

	if req.Quantity < 0 {
		return nil, apperror.InvalidInput(op, "quantity must not be negative, got %d", req.Quantity)
	}
	gtin := strings.TrimSpace(req.GTIN)

	view, err := s.products.FindVariantByGTIN(ctx, gtin)
	switch {
	case err == nil:
		res := &RegisterResult{VariantID: view.VariantID, ModelID: view.ModelID}
		return res, s.SetStock(ctx, view.VariantID, req.WarehouseID, req.Quantity)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	if err := catalog.Exists(s.db.WithContext(ctx), catalog.Warehouses, req.WarehouseID); err != nil {
		return nil, err
	}

	modelID, modelCreated, err := s.products.ResolveOrCreateModel(ctx, req.ModelKey, req.ModelExternalRef)
	if err != nil {
		return nil, err
	}
	res := &RegisterResult{ModelID: modelID, ModelCreated: modelCreated}

	variantID, err := s.products.CreateVariant(ctx, product.NewVariant{
		ModelID:      modelID,
		GTIN:         gtin,
		ColorID:      req.ColorID,
		SizeID:       req.SizeID,
		ExternalRefA: req.ExternalRefA,
		ExternalRefB: req.ExternalRefB,
	})
	switch {
	case err == nil:
		res.VariantCreated = true
	case errors.Is(err, apperror.ErrConflict):
		// Created concurrently; register stock against the winner.
		view, err := s.products.FindVariantByGTIN(ctx, gtin)
		if err != nil {
			return nil, err
		}
		variantID = view.VariantID
	default:
		return nil, err
	}
	res.VariantID = variantID

	if err := s.SetStock(ctx, variantID, req.WarehouseID, req.Quantity); err != nil {
		if res.VariantCreated {
			s.DiscardUnstocked(ctx, variantID)
		}
		return nil, err
	}
	return res, nil
}

// DiscardUnstocked deletes a freshly created variant whose first stock write failed
// and reports whether it went. It runs even when ctx is already done.
func (s *Service) DiscardUnstocked(ctx context.Context, variantID int64) bool {
	deleted, err := s.DeleteIfOrphan(context.WithoutCancel(ctx), variantID)
	if err != nil {
		s.logger.Error("Failed to discard unstocked variant", zap.Int64("variant_id", variantID), zap.Error(err))
	}
	return deleted
}

// Detail returns the variant with gtin and its quantity per warehouse.
func (s *Service) Detail(ctx context.Context, gtin string) (*Detail, error) {
	const op = "stock.Detail"

	view, err := s.products.FindVariantByGTIN(ctx, gtin)
	if err != nil {
		return nil, err
	}
	var stocks []WarehouseStock
	err = s.db.WithContext(ctx).Table("stock_entries AS se").
		Select("se.warehouse_id, w.name AS warehouse_name, se.quantity").
		Joins("JOIN warehouses w ON w.id = se.warehouse_id").
		Where("se.variant_id = ?", view.VariantID).
		Order("w.name").
		Scan(&stocks).Error
	if err != nil {
		return nil, apperror.FromStore(op, err)
	}

	d := &Detail{VariantView: *view, Stocks: stocks}
	for _, st := range stocks {
		d.Total += st.Quantity
	}
	return d, nil
}

// ListWarehouse lists every variant stocked in warehouseID, ordered by model and GTIN.
func (s *Service) ListWarehouse(ctx context.Context, warehouseID int64) ([]WarehouseRow, error) {
	const op = "stock.ListWarehouse"
	db := s.db.WithContext(ctx)

	if err := catalog.Exists(db, catalog.Warehouses, warehouseID); err != nil {
		return nil, err
	}
	var rows []WarehouseRow
	err := db.Table("stock_entries AS se").
		Select("v.gtin, m.display_name AS model, b.name AS brand, co.name AS color, sz.value AS size, se.quantity").
		Joins("JOIN product_variants v ON v.id = se.variant_id").
		Joins("JOIN product_models m ON m.id = v.model_id").
		Joins("JOIN brands b ON b.id = m.brand_id").
		Joins("JOIN colors co ON co.id = v.color_id").
		Joins("JOIN sizes sz ON sz.id = v.size_id").
		Where("se.warehouse_id = ?", warehouseID).
		Order("m.display_name, v.gtin").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.FromStore(op, err)
	}
	return rows, nil
}
