package stock

import (
	"context"
	"errors"

	"sapataria/core/apperror"
	"sapataria/core/audit"
	"sapataria/core/database"
	"sapataria/feature/catalog"
	"sapataria/feature/product"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetStock sets the quantity of (variantID, warehouseID) to exactly quantity,
// creating the row when absent. Setting the current value writes nothing.
func (s *Service) SetStock(ctx context.Context, variantID, warehouseID int64, quantity int) error {
	const op = "stock.SetStock"
	if quantity < 0 {
		return apperror.InvalidInput(op, "quantity must not be negative, got %d", quantity)
	}

	var before int
	var wrote bool
	err := s.mutate(ctx, "set", variantID, warehouseID, func(tx *gorm.DB) error {
		entry, found, err := fetchEntry(tx, variantID, warehouseID)
		if err != nil {
			return apperror.FromStore(op, err)
		}
		before = entry.Quantity
		if found && entry.Quantity == quantity {
			return nil
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   entryKey,
			DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
		}).Create(&Entry{VariantID: variantID, WarehouseID: warehouseID, Quantity: quantity}).Error
		if err != nil {
			return apperror.FromStore(op, err)
		}
		wrote = true
		return nil
	})
	if err != nil {
		return err
	}
	if wrote {
		s.record(ctx, "stock.set", variantID, warehouseID, map[string]any{"before": before, "after": quantity})
	}
	return nil
}

// AddStock increases the quantity by delta in one statement and returns the new quantity.
func (s *Service) AddStock(ctx context.Context, variantID, warehouseID int64, delta int) (int, error) {
	const op = "stock.AddStock"
	if delta <= 0 {
		return 0, apperror.InvalidInput(op, "delta must be positive, got %d", delta)
	}

	var after int
	err := s.mutate(ctx, "add", variantID, warehouseID, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: entryKey,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("stock_entries.quantity + ?", delta),
			}),
		}).Create(&Entry{VariantID: variantID, WarehouseID: warehouseID, Quantity: delta}).Error
		if err != nil {
			return apperror.FromStore(op, err)
		}
		entry, _, err := fetchEntry(tx, variantID, warehouseID)
		if err != nil {
			return apperror.FromStore(op, err)
		}
		after = entry.Quantity
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "stock.add", variantID, warehouseID, map[string]any{"delta": delta, "after": after})
	return after, nil
}

// RemoveStock decreases the quantity by delta and returns the new quantity.
// A removal larger than the current quantity fails with *apperror.InsufficientStockError
// and writes nothing.
func (s *Service) RemoveStock(ctx context.Context, variantID, warehouseID int64, delta int) (int, error) {
	const op = "stock.RemoveStock"
	if delta <= 0 {
		return 0, apperror.InvalidInput(op, "delta must be positive, got %d", delta)
	}

	var after int
	err := s.mutate(ctx, "remove", variantID, warehouseID, func(tx *gorm.DB) error {
		res := tx.Model(&Entry{}).
			Where("variant_id = ? AND warehouse_id = ? AND quantity >= ?", variantID, warehouseID, delta).
			Update("quantity", gorm.Expr("quantity - ?", delta))
		if res.Error != nil {
			return apperror.FromStore(op, res.Error)
		}

		entry, _, err := fetchEntry(tx, variantID, warehouseID)
		if err != nil {
			return apperror.FromStore(op, err)
		}
		if res.RowsAffected == 0 {
			return &apperror.InsufficientStockError{Available: entry.Quantity, Requested: delta}
		}
		after = entry.Quantity
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "stock.remove", variantID, warehouseID, map[string]any{"delta": delta, "after": after})
	return after, nil
}

// DeleteStockRow removes the row of (variantID, warehouseID) whatever its quantity.
// An absent row deletes nothing. Either way, a variant left without rows is deleted
// in the same transaction.
func (s *Service) DeleteStockRow(ctx context.Context, variantID, warehouseID int64) (bool, error) {
	const op = "stock.DeleteStockRow"

	var removed int
	var found, variantDeleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, variantID); err != nil {
			return err
		}
		entry, ok, err := fetchEntry(tx, variantID, warehouseID)
		if err != nil {
			return apperror.FromStore(op, err)
		}
		if found = ok; found {
			removed = entry.Quantity
			err = tx.Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).Delete(&Entry{}).Error
			if err != nil {
				return apperror.FromStore(op, err)
			}
		}

		variantDeleted, err = deleteIfOrphan(tx, variantID)
		if err != nil {
			return apperror.FromStore(op, err)
		}
		return nil
	})
	s.metrics.ObserveStock("delete", err)
	if err != nil {
		return false, err
	}

	if found {
		s.record(ctx, "stock.delete", variantID, warehouseID, map[string]any{"removed": removed})
	}
	if variantDeleted {
		audit.Record(ctx, s.audit, "variant.delete", "product_variants", variantID, map[string]any{"reason": "orphaned"})
		s.logger.Info("Deleted orphaned variant", zap.Int64("variant_id", variantID))
	}
	return variantDeleted, nil
}

// DeleteIfOrphan deletes the variant when it has no stock row left and reports
// whether it did.
func (s *Service) DeleteIfOrphan(ctx context.Context, variantID int64) (bool, error) {
	deleted, err := deleteIfOrphan(s.db.WithContext(ctx), variantID)
	if err != nil {
		return false, apperror.FromStore("stock.DeleteIfOrphan", err)
	}
	if deleted {
		audit.Record(ctx, s.audit, "variant.delete", "product_variants", variantID, map[string]any{"reason": "orphaned"})
		s.logger.Info("Deleted orphaned variant", zap.Int64("variant_id", variantID))
	}
	return deleted, nil
}

func deleteIfOrphan(tx *gorm.DB, variantID int64) (bool, error) {
	remaining := tx.Model(&Entry{}).Select("1").Where("variant_id = ?", variantID)
	res := tx.Where("id = ? AND NOT EXISTS (?)", variantID, remaining).Delete(&product.Variant{})
	return res.RowsAffected == 1, res.Error
}

// HasAnyStockRows reports whether the variant has a stock row in any warehouse.
func (s *Service) HasAnyStockRows(ctx context.Context, variantID int64) (bool, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("variant_id = ?", variantID).Limit(1).Pluck("variant_id", &ids).Error
	if err != nil {
		return false, apperror.FromStore("stock.HasAnyStockRows", err)
	}
	return len(ids) > 0, nil
}

// Quantity returns the stored quantity, zero when no row exists.
func (s *Service) Quantity(ctx context.Context, variantID, warehouseID int64) (int, error) {
	entry, _, err := fetchEntry(s.db.WithContext(ctx), variantID, warehouseID)
	if err != nil {
		return 0, apperror.FromStore("stock.Quantity", err)
	}
	return entry.Quantity, nil
}

var entryKey = []clause.Column{{Name: "variant_id"}, {Name: "warehouse_id"}}

// mutate runs fn in a transaction holding the variant lock, after checking the warehouse.
func (s *Service) mutate(ctx context.Context, op string, variantID, warehouseID int64, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, variantID); err != nil {
			return err
		}
		if err := catalog.Exists(tx, catalog.Warehouses, warehouseID); err != nil {
			return err
		}
		return fn(tx)
	})
	s.metrics.ObserveStock(op, err)
	return err
}

// lockVariant serializes ledger writers of one variant for the rest of tx.
func lockVariant(tx *gorm.DB, variantID int64) error {
	const op = "stock.lockVariant"

	q := tx.Model(&product.Variant{}).Where("id = ?", variantID)
	if database.SupportsRowLocks(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []int64
	if err := q.Pluck("id", &ids).Error; err != nil {
		return apperror.FromStore(op, err)
	}
	if len(ids) == 0 {
		return apperror.NotFound(op, "variant %d does not exist", variantID)
	}
	return nil
}

// fetchEntry reads one ledger row; a missing row is reported as quantity 0 and found=false.
func fetchEntry(db *gorm.DB, variantID, warehouseID int64) (Entry, bool, error) {
	entry := Entry{VariantID: variantID, WarehouseID: warehouseID}
	var rows []Entry
	err := db.Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).Limit(1).Find(&rows).Error
	if err != nil {
		return entry, false, err
	}
	if len(rows) == 0 {
		return entry, false, nil
	}
	return rows[0], true, nil
}

func (s *Service) record(ctx context.Context, action string, variantID, warehouseID int64, details map[string]any) {
	details["warehouse_id"] = warehouseID
	audit.Record(ctx, s.audit, action, "stock_entries", variantID, details)
}

func insufficient(err error) (*apperror.InsufficientStockError, bool) {
	var ise *apperror.InsufficientStockError
	ok := errors.As(err, &ise)
	return ise, ok
}
