package product

import (
	"context"
	"strconv"
	"strings"

	"sapataria/core/apperror"

	"gorm.io/gorm"
)

// SearchField names the column SearchVariants matches on.
type SearchField string

const (
	SearchGTIN         SearchField = "gtin"
	SearchModelRef     SearchField = "model_ref"
	SearchExternalRefA SearchField = "external_ref_a"
	SearchExternalRefB SearchField = "external_ref_b"
)

// ViewQuery selects VariantView rows. The variant table is aliased v and the model m.
func ViewQuery(db *gorm.DB) *gorm.DB {
	return db.Table("product_variants AS v").
		Select(`v.id AS variant_id, v.gtin, v.model_id,
			m.display_name, m.external_ref AS model_external_ref,
			m.brand_id, b.name AS brand_name,
			m.category_id, c.name AS category_name,
			m.subcategory_id, sc.name AS subcategory_name,
			m.supplier_id, sp.name AS supplier_name,
			v.color_id, co.name AS color_name,
			v.size_id, sz.value AS size_value,
			v.external_ref_a, v.external_ref_b`).
		Joins("JOIN product_models m ON m.id = v.model_id").
		Joins("JOIN brands b ON b.id = m.brand_id").
		Joins("JOIN categories c ON c.id = m.category_id").
		Joins("JOIN subcategories sc ON sc.id = m.subcategory_id").
		Joins("JOIN suppliers sp ON sp.id = m.supplier_id").
		Joins("JOIN colors co ON co.id = v.color_id").
		Joins("JOIN sizes sz ON sz.id = v.size_id")
}

// SearchVariants finds variants by GTIN or by one of the external references.
func (s *Service) SearchVariants(ctx context.Context, field SearchField, value string) ([]VariantView, error) {
	const op = "product.SearchVariants"

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperror.InvalidInput(op, "search value is empty")
	}

	q := ViewQuery(s.db.WithContext(ctx))
	switch field {
	case SearchGTIN:
		q = q.Where("v.gtin = ?", value)
	case SearchModelRef:
		q = q.Where("m.external_ref = ?", value)
	case SearchExternalRefA:
		ref, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, apperror.InvalidInput(op, "external_ref_a must be an integer")
		}
		q = q.Where("v.external_ref_a = ?", ref)
	case SearchExternalRefB:
		q = q.Where("v.external_ref_b = ?", value)
	default:
		return nil, apperror.InvalidInput(op, "unknown search field %q", field)
	}

	var views []VariantView
	if err := q.Order("v.gtin").Scan(&views).Error; err != nil {
		return nil, apperror.FromStore(op, err)
	}
	return views, nil
}
