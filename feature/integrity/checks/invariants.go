package checks

import (
	"context"
	"fmt"

	"sapataria/feature/product"

	"gorm.io/gorm"
)

// InvariantReport counts rows that break the inventory rules.
// None of them can be produced through the services; they point at manual edits or failed migrations.
type InvariantReport struct {
	OK bool `json:"ok"`
	// OrphanVariants lists the GTINs of variants without any stock row.
	OrphanVariants []string `json:"orphan_variants"`
	// NegativeQuantities counts stock rows below zero.
	NegativeQuantities int64 `json:"negative_quantities"`
	// DanglingStockRows counts stock rows whose variant or warehouse is gone.
	DanglingStockRows int64 `json:"dangling_stock_rows"`
	// DuplicateNames maps a reference table to the names stored more than once.
	DuplicateNames  map[string][]string `json:"duplicate_names"`
	DuplicateModels []product.ModelKey  `json:"duplicate_models"`
	DuplicateGTINs  []string            `json:"duplicate_gtins"`
}

type nameColumn struct {
	table  string
	group  string
	column string
}

var nameColumns = []nameColumn{
	{table: "brands", group: "name", column: "name"},
	{table: "categories", group: "name", column: "name"},
	{table: "colors", group: "name", column: "name"},
	{table: "sizes", group: "value", column: "value"},
	{table: "suppliers", group: "name", column: "name"},
	{table: "warehouses", group: "name", column: "name"},
	{table: "subcategories", group: "category_id, name", column: "name"},
}

const modelIdentity = "display_name, brand_id, category_id, subcategory_id, supplier_id"

// CheckInvariants runs every invariant query against db.
func CheckInvariants(ctx context.Context, db *gorm.DB) (*InvariantReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	db = db.WithContext(ctx)

	report := &InvariantReport{
		OrphanVariants:  []string{},
		DuplicateNames:  map[string][]string{},
		DuplicateModels: []product.ModelKey{},
		DuplicateGTINs:  []string{},
	}

	err := db.Table("product_variants AS v").
		Where("NOT EXISTS (?)", db.Table("stock_entries AS se").Select("1").Where("se.variant_id = v.id")).
		Order("v.gtin").
		Pluck("v.gtin", &report.OrphanVariants).Error
	if err != nil {
		return nil, fmt.Errorf("orphan variants: %w", err)
	}

	if err := db.Table("stock_entries").Where("quantity < 0").Count(&report.NegativeQuantities).Error; err != nil {
		return nil, fmt.Errorf("negative quantities: %w", err)
	}

	err = db.Table("stock_entries AS se").
		Where("NOT EXISTS (?) OR NOT EXISTS (?)",
			db.Table("product_variants AS v").Select("1").Where("v.id = se.variant_id"),
			db.Table("warehouses AS w").Select("1").Where("w.id = se.warehouse_id")).
		Count(&report.DanglingStockRows).Error
	if err != nil {
		return nil, fmt.Errorf("dangling stock rows: %w", err)
	}

	for _, nc := range nameColumns {
		var names []string
		err := db.Table(nc.table).
			Select(nc.column).
			Group(nc.group).
			Having("COUNT(*) > 1").
			Order(nc.column).
			Pluck(nc.column, &names).Error
		if err != nil {
			return nil, fmt.Errorf("duplicate names in %s: %w", nc.table, err)
		}
		if len(names) > 0 {
			report.DuplicateNames[nc.table] = names
		}
	}

	err = db.Table("product_models").
		Select(modelIdentity).
		Group(modelIdentity).
		Having("COUNT(*) > 1").
		Order("display_name").
		Scan(&report.DuplicateModels).Error
	if err != nil {
		return nil, fmt.Errorf("duplicate models: %w", err)
	}

	err = db.Table("product_variants").
		Select("gtin").
		Group("gtin").
		Having("COUNT(*) > 1").
		Order("gtin").
		Pluck("gtin", &report.DuplicateGTINs).Error
	if err != nil {
		return nil, fmt.Errorf("duplicate gtins: %w", err)
	}

	report.OK = len(report.OrphanVariants) == 0 &&
		report.NegativeQuantities == 0 &&
		report.DanglingStockRows == 0 &&
		len(report.DuplicateNames) == 0 &&
		len(report.DuplicateModels) == 0 &&
		len(report.DuplicateGTINs) == 0
	return report, nil
}

// PurgeOrphans deletes the variants that have no stock row left and returns how many went.
func PurgeOrphans(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}
	db = db.WithContext(ctx)

	res := db.Where("NOT EXISTS (?)",
		db.Table("stock_entries").Select("1").Where("stock_entries.variant_id = product_variants.id")).
		Delete(&product.Variant{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge orphan variants: %w", res.Error)
	}
	return res.RowsAffected, nil
}
