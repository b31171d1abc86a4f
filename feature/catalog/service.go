package catalog

import (
	"context"
	"fmt"
	"strings"

	"sapataria/core/apperror"
	"sapataria/core/audit"
	"sapataria/core/cache"
	"sapataria/core/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service resolves reference values to ids, creating them on first reference.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	resolver *cache.Resolver
	audit    audit.Sink
	metrics  *metrics.Metrics
}

// NewService creates a catalog service. idCache, sink and m may be nil.
func NewService(db *gorm.DB, logger *zap.Logger, idCache cache.IDCache, sink audit.Sink, m *metrics.Metrics) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{
		db:       db,
		logger:   logger,
		resolver: cache.NewResolver(idCache),
		audit:    sink,
		metrics:  m,
	}
}

// GetOrCreate returns the id of the row of dim named exactly name (after trimming),
// inserting it when absent. Concurrent callers converge on one row.
func (s *Service) GetOrCreate(ctx context.Context, dim Dimension, name string) (int64, bool, error) {
	const op = "catalog.GetOrCreate"

	spec, ok := dimensions[dim]
	if !ok {
		return 0, false, apperror.InvalidInput(op, "unknown dimension %q", dim)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, apperror.InvalidInput(op, "%s name is empty", dim)
	}

	key := string(dim) + "\x00" + name
	id, created, err := s.resolver.Resolve(ctx, key, func(ctx context.Context) (int64, bool, error) {
		return s.insertOrSelect(ctx, spec.table, spec.newRow(name), spec.column+" = ?", name)
	})
	if err != nil {
		return 0, false, apperror.FromStore(op, err)
	}
	if created {
		s.onCreated(ctx, string(dim), id, map[string]any{spec.column: name})
	}
	return id, created, nil
}

// GetOrCreateSubcategory resolves name inside categoryID, which must exist.
func (s *Service) GetOrCreateSubcategory(ctx context.Context, categoryID int64, name string) (int64, bool, error) {
	const op = "catalog.GetOrCreateSubcategory"

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, apperror.InvalidInput(op, "subcategory name is empty")
	}
	if err := Exists(s.db.WithContext(ctx), Categories, categoryID); err != nil {
		return 0, false, err
	}

	key := fmt.Sprintf("%s\x00%d\x00%s", Subcategories, categoryID, name)
	id, created, err := s.resolver.Resolve(ctx, key, func(ctx context.Context) (int64, bool, error) {
		row := &Subcategory{CategoryID: categoryID, Name: name}
		return s.insertOrSelect(ctx, "subcategories", row, "category_id = ? AND name = ?", categoryID, name)
	})
	if err != nil {
		return 0, false, apperror.FromStore(op, err)
	}
	if created {
		s.onCreated(ctx, string(Subcategories), id, map[string]any{"category_id": categoryID, "name": name})
	}
	return id, created, nil
}

// insertOrSelect inserts row ignoring unique conflicts, then reads the id back.
// A conflict means another caller created the row first; both return its id.
func (s *Service) insertOrSelect(ctx context.Context, table string, row any, query string, args ...any) (int64, bool, error) {
	db := s.db.WithContext(ctx)

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return 0, false, res.Error
	}

	var ids []int64
	if err := db.Table(table).Where(query, args...).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, fmt.Errorf("row in %s vanished after insert", table)
	}
	return ids[0], res.RowsAffected == 1, nil
}

func (s *Service) onCreated(ctx context.Context, entity string, id int64, details map[string]any) {
	s.metrics.ObserveCreated(entity)
	audit.Record(ctx, s.audit, "catalog.create", entity, id, details)
	s.logger.Debug("Created reference value", zap.String("dimension", entity), zap.Int64("id", id))
}

// List returns every value of dim ordered by name.
func (s *Service) List(ctx context.Context, dim Dimension) ([]Value, error) {
	const op = "catalog.List"

	spec, ok := dimensions[dim]
	if !ok {
		return nil, apperror.InvalidInput(op, "unknown dimension %q", dim)
	}
	var values []Value
	err := s.db.WithContext(ctx).Table(spec.table).
		Select("id, " + spec.column + " AS name").
		Order(spec.column).
		Scan(&values).Error
	if err != nil {
		return nil, apperror.FromStore(op, err)
	}
	return values, nil
}

// ListSubcategories returns the subcategories of categoryID ordered by name.
func (s *Service) ListSubcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	const op = "catalog.ListSubcategories"

	if err := Exists(s.db.WithContext(ctx), Categories, categoryID); err != nil {
		return nil, err
	}
	var subs []Subcategory
	if err := s.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("name").Find(&subs).Error; err != nil {
		return nil, apperror.FromStore(op, err)
	}
	return subs, nil
}

// Exists fails with NotFound unless dim has a row with id.
func (s *Service) Exists(ctx context.Context, dim Dimension, id int64) error {
	return Exists(s.db.WithContext(ctx), dim, id)
}

// Exists checks a reference id through db, which may be a transaction.
func Exists(db *gorm.DB, dim Dimension, id int64) error {
	const op = "catalog.Exists"

	table := string(dim)
	if spec, ok := dimensions[dim]; ok {
		table = spec.table
	} else if dim != Subcategories {
		return apperror.InvalidInput(op, "unknown dimension %q", dim)
	}

	var n int64
	if err := db.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperror.FromStore(op, err)
	}
	if n == 0 {
		return apperror.NotFound(op, "%s %d does not exist", dim, id)
	}
	return nil
}
