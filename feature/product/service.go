package product

import (
	"context"
	"errors"
	"strings"

	"sapataria/core/apperror"
	"sapataria/core/audit"
	"sapataria/core/metrics"
	"sapataria/feature/catalog"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service resolves and edits product models and variants.
type Service struct {
	db      *gorm.DB
	logger  *zap.Logger
	audit   audit.Sink
	metrics *metrics.Metrics
}

// NewService creates a product service. sink and m may be nil.
func NewService(db *gorm.DB, logger *zap.Logger, sink audit.Sink, m *metrics.Metrics) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{db: db, logger: logger, audit: sink, metrics: m}
}

// ResolveOrCreateModel returns the model matching key exactly, creating it when
// none exists. externalRef is only stored on creation; an existing model keeps its own.
func (s *Service) ResolveOrCreateModel(ctx context.Context, key ModelKey, externalRef *string) (int64, bool, error) {
	const op = "product.ResolveOrCreateModel"
	db := s.db.WithContext(ctx)

	key.DisplayName = strings.TrimSpace(key.DisplayName)
	if err := checkModelKey(db, op, key); err != nil {
		return 0, false, err
	}

	row := &Model{
		ExternalRef:   trimOptional(externalRef),
		DisplayName:   key.DisplayName,
		BrandID:       key.BrandID,
		CategoryID:    key.CategoryID,
		SubcategoryID: key.SubcategoryID,
		SupplierID:    key.SupplierID,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return 0, false, apperror.FromStore(op, res.Error)
	}

	var ids []int64
	err := db.Model(&Model{}).
		Where("display_name = ? AND brand_id = ? AND category_id = ? AND subcategory_id = ? AND supplier_id = ?",
			key.DisplayName, key.BrandID, key.CategoryID, key.SubcategoryID, key.SupplierID).
		Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return 0, false, apperror.FromStore(op, err)
	}
	if len(ids) == 0 {
		return 0, false, &apperror.Error{Kind: apperror.KindUnavailable, Op: op, Msg: "model vanished after insert"}
	}

	created := res.RowsAffected == 1
	if created {
		s.metrics.ObserveCreated("product_models")
		audit.Record(ctx, s.audit, "model.create", "product_models", ids[0], map[string]any{
			"display_name": key.DisplayName,
			"external_ref": row.ExternalRef,
		})
	}
	return ids[0], created, nil
}

// GetModel returns a model by id.
func (s *Service) GetModel(ctx context.Context, id int64) (*Model, error) {
	var m Model
	if err := s.db.WithContext(ctx).Take(&m, id).Error; err != nil {
		return nil, notFoundOr("product.GetModel", err, "model %d", id)
	}
	return &m, nil
}

// UpdateModel edits a model in place. Either every given field is written or none is.
// An edit that would duplicate another model's identity fails with Conflict.
func (s *Service) UpdateModel(ctx context.Context, id int64, upd ModelUpdate) (*Model, error) {
	var updated *Model
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := updateModelTx(tx, id, upd)
		updated = m
		return err
	})
	if err != nil {
		return nil, err
	}
	audit.Record(ctx, s.audit, "model.update", "product_models", id, modelUpdateDetails(upd))
	return updated, nil
}

func updateModelTx(tx *gorm.DB, id int64, upd ModelUpdate) (*Model, error) {
	const op = "product.UpdateModel"

	var m Model
	if err := tx.Take(&m, id).Error; err != nil {
		return nil, notFoundOr(op, err, "model %d", id)
	}
	if upd.DisplayName != nil {
		m.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.BrandID != nil {
		m.BrandID = *upd.BrandID
	}
	if upd.CategoryID != nil {
		m.CategoryID = *upd.CategoryID
	}
	if upd.SubcategoryID != nil {
		m.SubcategoryID = *upd.SubcategoryID
	}
	if upd.SupplierID != nil {
		m.SupplierID = *upd.SupplierID
	}
	if upd.ExternalRef != nil {
		m.ExternalRef = trimOptional(upd.ExternalRef)
	}

	key := ModelKey{m.DisplayName, m.BrandID, m.CategoryID, m.SubcategoryID, m.SupplierID}
	if err := checkModelKey(tx, op, key); err != nil {
		return nil, err
	}

	var clash int64
	err := tx.Model(&Model{}).
		Where("id <> ? AND display_name = ? AND brand_id = ? AND category_id = ? AND subcategory_id = ? AND supplier_id = ?",
			id, m.DisplayName, m.BrandID, m.CategoryID, m.SubcategoryID, m.SupplierID).
		Count(&clash).Error
	if err != nil {
		return nil, apperror.FromStore(op, err)
	}
	if clash > 0 {
		return nil, apperror.Conflict(op, "another model already has this name, brand, category, subcategory and supplier")
	}

	err = tx.Model(&Model{}).Where("id = ?", id).Updates(map[string]any{
		"display_name":   m.DisplayName,
		"brand_id":       m.BrandID,
		"category_id":    m.CategoryID,
		"subcategory_id": m.SubcategoryID,
		"supplier_id":    m.SupplierID,
		"external_ref":   m.ExternalRef,
	}).Error
	if err != nil {
		return nil, apperror.FromStore(op, err)
	}
	return &m, nil
}

// FindVariantByGTIN returns the joined view of the variant with gtin.
func (s *Service) FindVariantByGTIN(ctx context.Context, gtin string) (*VariantView, error) {
	return findViewTx(s.db.WithContext(ctx), gtin)
}

func findViewTx(db *gorm.DB, gtin string) (*VariantView, error) {
	const op = "product.FindVariantByGTIN"

	gtin = strings.TrimSpace(gtin)
	if gtin == "" {
		return nil, apperror.InvalidInput(op, "gtin is empty")
	}
	var view VariantView
	if err := ViewQuery(db).Where("v.gtin = ?", gtin).Take(&view).Error; err != nil {
		return nil, notFoundOr(op, err, "no variant with gtin %s", gtin)
	}
	return &view, nil
}

// CreateVariant inserts a new variant. A GTIN that already exists fails with
// Conflict; it is never merged into the existing row.
func (s *Service) CreateVariant(ctx context.Context, nv NewVariant) (int64, error) {
	const op = "product.CreateVariant"
	db := s.db.WithContext(ctx)

	gtin := strings.TrimSpace(nv.GTIN)
	if gtin == "" {
		return 0, apperror.InvalidInput(op, "gtin is empty")
	}

	var modelCount int64
	if err := db.Model(&Model{}).Where("id = ?", nv.ModelID).Count(&modelCount).Error; err != nil {
		return 0, apperror.FromStore(op, err)
	}
	if modelCount == 0 {
		return 0, apperror.NotFound(op, "model %d does not exist", nv.ModelID)
	}
	if err := catalog.Exists(db, catalog.Colors, nv.ColorID); err != nil {
		return 0, err
	}
	if err := catalog.Exists(db, catalog.Sizes, nv.SizeID); err != nil {
		return 0, err
	}

	row := &Variant{
		ModelID:      nv.ModelID,
		GTIN:         gtin,
		ColorID:      nv.ColorID,
		SizeID:       nv.SizeID,
		ExternalRefA: nv.ExternalRefA,
		ExternalRefB: trimOptional(nv.ExternalRefB),
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return 0, apperror.FromStore(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperror.Conflict(op, "gtin %s already exists", gtin)
	}

	s.metrics.ObserveCreated("product_variants")
	audit.Record(ctx, s.audit, "variant.create", "product_variants", row.ID, map[string]any{
		"gtin":     gtin,
		"model_id": nv.ModelID,
	})
	return row.ID, nil
}

// UpdateVariant edits color, size and external references of a variant.
func (s *Service) UpdateVariant(ctx context.Context, id int64, upd VariantUpdate) (*Variant, error) {
	var updated *Variant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := updateVariantTx(tx, id, upd)
		updated = v
		return err
	})
	if err != nil {
		return nil, err
	}
	audit.Record(ctx, s.audit, "variant.update", "product_variants", id, variantUpdateDetails(upd))
	return updated, nil
}

func updateVariantTx(tx *gorm.DB, id int64, upd VariantUpdate) (*Variant, error) {
	const op = "product.UpdateVariant"

	var v Variant
	if err := tx.Take(&v, id).Error; err != nil {
		return nil, notFoundOr(op, err, "variant %d", id)
	}
	if upd.ColorID != nil {
		if err := catalog.Exists(tx, catalog.Colors, *upd.ColorID); err != nil {
			return nil, err
		}
		v.ColorID = *upd.ColorID
	}
	if upd.SizeID != nil {
		if err := catalog.Exists(tx, catalog.Sizes, *upd.SizeID); err != nil {
			return nil, err
		}
		v.SizeID = *upd.SizeID
	}
	if upd.ExternalRefA != nil {
		v.ExternalRefA = upd.ExternalRefA
	}
	if upd.ExternalRefB != nil {
		v.ExternalRefB = trimOptional(upd.ExternalRefB)
	}

	err := tx.Model(&Variant{}).Where("id = ?", id).Updates(map[string]any{
		"color_id":       v.ColorID,
		"size_id":        v.SizeID,
		"external_ref_a": v.ExternalRefA,
		"external_ref_b": v.ExternalRefB,
	}).Error
	if err != nil {
		return nil, apperror.FromStore(op, err)
	}
	return &v, nil
}

// UpdateProductDetails edits the variant with gtin and its model in one transaction.
func (s *Service) UpdateProductDetails(ctx context.Context, gtin string, mu ModelUpdate, vu VariantUpdate) (*VariantView, error) {
	var view *VariantView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findViewTx(tx, gtin)
		if err != nil {
			return err
		}
		if _, err := updateModelTx(tx, current.ModelID, mu); err != nil {
			return err
		}
		if _, err := updateVariantTx(tx, current.VariantID, vu); err != nil {
			return err
		}
		view, err = findViewTx(tx, gtin)
		return err
	})
	if err != nil {
		return nil, err
	}
	details := modelUpdateDetails(mu)
	for k, v := range variantUpdateDetails(vu) {
		details[k] = v
	}
	audit.Record(ctx, s.audit, "product.update", "product_variants", view.VariantID, details)
	return view, nil
}

func checkModelKey(db *gorm.DB, op string, key ModelKey) error {
	if key.DisplayName == "" {
		return apperror.InvalidInput(op, "display name is empty")
	}
	refs := []struct {
		dim catalog.Dimension
		id  int64
	}{
		{catalog.Brands, key.BrandID},
		{catalog.Categories, key.CategoryID},
		{catalog.Subcategories, key.SubcategoryID},
		{catalog.Suppliers, key.SupplierID},
	}
	for _, ref := range refs {
		if err := catalog.Exists(db, ref.dim, ref.id); err != nil {
			return err
		}
	}
	return nil
}

func notFoundOr(op string, err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(op, format, args...)
	}
	return apperror.FromStore(op, err)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func modelUpdateDetails(u ModelUpdate) map[string]any {
	d := map[string]any{}
	if u.DisplayName != nil {
		d["display_name"] = *u.DisplayName
	}
	if u.BrandID != nil {
		d["brand_id"] = *u.BrandID
	}
	if u.CategoryID != nil {
		d["category_id"] = *u.CategoryID
	}
	if u.SubcategoryID != nil {
		d["subcategory_id"] = *u.SubcategoryID
	}
	if u.SupplierID != nil {
		d["supplier_id"] = *u.SupplierID
	}
	if u.ExternalRef != nil {
		d["external_ref"] = *u.ExternalRef
	}
	return d
}

func variantUpdateDetails(u VariantUpdate) map[string]any {
	d := map[string]any{}
	if u.ColorID != nil {
		d["color_id"] = *u.ColorID
	}
	if u.SizeID != nil {
		d["size_id"] = *u.SizeID
	}
	if u.ExternalRefA != nil {
		d["external_ref_a"] = *u.ExternalRefA
	}
	if u.ExternalRefB != nil {
		d["external_ref_b"] = *u.ExternalRefB
	}
	return d
}
