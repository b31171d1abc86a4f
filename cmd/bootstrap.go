package cmd

import (
	"context"
	"fmt"

	"sapataria/core/audit"
	"sapataria/core/cache"
	"sapataria/core/config"
	"sapataria/core/database"
	"sapataria/core/logger"
	"sapataria/core/metrics"
	"sapataria/core/storage"
	"sapataria/feature/catalog"
	"sapataria/feature/importer"
	"sapataria/feature/integrity"
	"sapataria/feature/product"
	"sapataria/feature/stock"
	"sapataria/feature/webhook"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds every service built from one configuration.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	metrics *metrics.Metrics

	catalog   *catalog.Service
	products  *product.Service
	stock     *stock.Service
	importer  *importer.Service
	webhook   *webhook.Service
	integrity *integrity.Service
}

// models lists every table the application owns, in migration order.
func models() []any {
	all := append(catalog.Models(), product.Models()...)
	all = append(all, stock.Models()...)
	return append(all, audit.Models()...)
}

// bootstrap loads the configuration and wires the services.
// The schema is migrated unless migrate is false.
func bootstrap(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	if migrate {
		if err := database.Migrate(db, models()...); err != nil {
			return nil, err
		}
	}

	idCache, err := cache.New(ctx, cfg.Cache, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	var client storage.Client
	if cfg.Storage.Enabled {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	sink := audit.New(cfg.Audit, db, logg)
	m := metrics.New()

	rt := &runtime{cfg: cfg, logger: logg, db: db, metrics: m}
	rt.catalog = catalog.NewService(db, logg, idCache, sink, m)
	rt.products = product.NewService(db, logg, sink, m)
	rt.stock = stock.NewService(db, logg, rt.products, sink, m)
	rt.importer = importer.NewService(rt.catalog, rt.products, rt.stock, client, cfg.Storage.Bucket, cfg.Import, logg, m)
	rt.webhook = webhook.NewService(rt.stock, cfg.Server.DefaultWarehouseID, logg, m)
	rt.integrity = integrity.NewService(db, client, cfg.Storage.Bucket, cfg.Import.ReportsPrefix, models(), sink, logg)
	return rt, nil
}
