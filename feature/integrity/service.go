package integrity

import (
	"context"

	"sapataria/core/apperror"
	"sapataria/core/audit"
	"sapataria/core/storage"
	"sapataria/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	db            *gorm.DB
	client        storage.Client
	bucket        string
	reportsPrefix string
	models        []any
	audit         audit.Sink
	logger        *zap.Logger
}

// NewService creates a new integrity service. models are the tables the schema check expects;
// client may be nil when object storage is disabled.
func NewService(db *gorm.DB, client storage.Client, bucket, reportsPrefix string, models []any, sink audit.Sink, logger *zap.Logger) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{
		db:            db,
		client:        client,
		bucket:        bucket,
		reportsPrefix: reportsPrefix,
		models:        models,
		audit:         sink,
		logger:        logger,
	}
}

// CheckInvariants counts rows that violate the inventory rules.
func (s *Service) CheckInvariants(ctx context.Context) (*checks.InvariantReport, error) {
	report, err := checks.CheckInvariants(ctx, s.db)
	if err != nil {
		return nil, apperror.FromStore("integrity.CheckInvariants", err)
	}
	return report, nil
}

// PurgeOrphans removes variants left without stock rows.
func (s *Service) PurgeOrphans(ctx context.Context) (int64, error) {
	n, err := checks.PurgeOrphans(ctx, s.db)
	if err != nil {
		return 0, apperror.FromStore("integrity.PurgeOrphans", err)
	}
	if n > 0 {
		audit.Record(ctx, s.audit, "integrity.purge_orphans", "product_variants", 0, map[string]any{"deleted": n})
		s.logger.Warn("Purged orphan variants", zap.Int64("deleted", n))
	}
	return n, nil
}

// CheckSchema compares the mapped models with the live database.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, s.models...)
}

// HasStorage reports whether an object storage client is configured.
func (s *Service) HasStorage() bool {
	return s.client != nil
}

// CheckStorage inspects the import bucket.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	return checks.CheckStorage(ctx, s.client, s.bucket, s.reportsPrefix)
}

// FixStorage creates the import bucket.
func (s *Service) FixStorage(ctx context.Context) error {
	return checks.FixStorage(ctx, s.client, s.bucket, s.logger)
}
