package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"sapataria/core/config"
	"sapataria/core/metrics"
	"sapataria/core/reconcile"
	"sapataria/core/storage"
	"sapataria/feature/catalog"
	"sapataria/feature/product"
	"sapataria/feature/stock"

	"go.uber.org/zap"
)

// Service runs spreadsheet imports and bulk updates through the reconciliation engine.
type Service struct {
	catalog  *catalog.Service
	products *product.Service
	stock    *stock.Service
	client   storage.Client
	bucket   string
	cfg      config.ImportConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates an import service. client may be nil when storage is disabled.
func NewService(cat *catalog.Service, products *product.Service, st *stock.Service, client storage.Client, bucket string, cfg config.ImportConfig, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		catalog:  cat,
		products: products,
		stock:    st,
		client:   client,
		bucket:   bucket,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// UpdateOptions selects the operation of a bulk stock update.
type UpdateOptions struct {
	Op          Op
	WarehouseID int64
	Quantity    int
}

// ImportSpec returns the engine spec for an initial catalog import.
func (s *Service) ImportSpec() *reconcile.Spec {
	return &reconcile.Spec{
		Adapter: NewCatalogAdapter(s.catalog, s.products, s.stock, s.cfg.DefaultSupplier, s.cfg.InitialQuantity),
		Logger:  s.logger,
		Metrics: s.metrics,
	}
}

// UpdateSpec returns the engine spec for a bulk stock update.
func (s *Service) UpdateSpec(opts UpdateOptions) *reconcile.Spec {
	return &reconcile.Spec{
		Adapter: NewStockAdapter(s.catalog, s.products, s.stock, opts.Op, opts.WarehouseID, opts.Quantity),
		Logger:  s.logger,
		Metrics: s.metrics,
	}
}

// Import runs an initial catalog import over rows.
func (s *Service) Import(ctx context.Context, rows []reconcile.Row, opts reconcile.Options) (*reconcile.Report, error) {
	return reconcile.Run(ctx, s.ImportSpec(), rows, opts)
}

// BulkUpdate applies one stock operation to every row's GTIN.
func (s *Service) BulkUpdate(ctx context.Context, rows []reconcile.Row, upd UpdateOptions, opts reconcile.Options) (*reconcile.Report, error) {
	return reconcile.Run(ctx, s.UpdateSpec(upd), rows, opts)
}

// ParseWorkbook parses a workbook using the configured sheet unless sheet is given.
func (s *Service) ParseWorkbook(r io.Reader, sheet string) ([]reconcile.Row, error) {
	if sheet == "" {
		sheet = s.cfg.Sheet
	}
	return ParseWorkbook(r, sheet)
}

// LoadObject downloads a workbook from the bucket and parses it.
func (s *Service) LoadObject(ctx context.Context, key, sheet string) ([]reconcile.Row, error) {
	if s.client == nil {
		return nil, fmt.Errorf("storage is disabled")
	}
	data, err := storage.Download(ctx, s.client, s.bucket, key)
	if err != nil {
		return nil, err
	}
	return s.ParseWorkbook(bytes.NewReader(data), sheet)
}

// StoreRejects uploads the failed rows of report as CSV and returns the object key.
// It returns an empty key when storage is disabled or nothing failed.
func (s *Service) StoreRejects(ctx context.Context, report *reconcile.Report) (string, error) {
	if s.client == nil || len(report.Failures()) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := reconcile.WriteRejects(&buf, report, Columns); err != nil {
		return "", fmt.Errorf("failed to render rejects: %w", err)
	}
	key := path.Join(s.cfg.ReportsPrefix, fmt.Sprintf("rejects-%s-%s.csv", report.Adapter, report.RunID))
	if err := storage.Upload(ctx, s.client, s.bucket, key, buf.Bytes(), "text/csv"); err != nil {
		return "", err
	}
	s.logger.Info("Uploaded rejects", zap.String("key", key), zap.Int("rows", len(report.Failures())))
	return key, nil
}

// ExportWarehouse writes the stock of warehouseID as xlsx.
func (s *Service) ExportWarehouse(ctx context.Context, warehouseID int64, w io.Writer) error {
	rows, err := s.stock.ListWarehouse(ctx, warehouseID)
	if err != nil {
		return err
	}
	return WriteWarehouseXLSX(w, fmt.Sprintf("Warehouse %d", warehouseID), rows)
}

// StoreExport renders the warehouse export and uploads it, returning the object key.
func (s *Service) StoreExport(ctx context.Context, warehouseID int64) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("storage is disabled")
	}
	var buf bytes.Buffer
	if err := s.ExportWarehouse(ctx, warehouseID, &buf); err != nil {
		return "", err
	}
	key := path.Join(s.cfg.ReportsPrefix, fmt.Sprintf("warehouse-%d-%s.xlsx", warehouseID, time.Now().UTC().Format("20060102-150405")))
	const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if err := storage.Upload(ctx, s.client, s.bucket, key, buf.Bytes(), xlsxType); err != nil {
		return "", err
	}
	return key, nil
}
