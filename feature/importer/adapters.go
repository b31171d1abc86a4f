package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sapataria/core/apperror"
	"sapataria/core/reconcile"
	"sapataria/core/utils"
	"sapataria/feature/catalog"
	"sapataria/feature/product"
	"sapataria/feature/stock"
)

// gtinKey normalizes the GTIN field of row, mapping a blank field to reconcile.ErrNoKey.
func gtinKey(row reconcile.Row) (string, error) {
	key, err := product.NormalizeGTIN(row.Get(FieldGTIN))
	if errors.Is(err, product.ErrMissingGTIN) {
		return "", reconcile.ErrNoKey
	}
	return key, err
}

// CatalogAdapter imports full product rows: it resolves every dimension, the
// model and the variant, then sets the initial quantity in every warehouse.
type CatalogAdapter struct {
	catalog         *catalog.Service
	products        *product.Service
	stock           *stock.Service
	defaultSupplier string
	quantity        int

	warehouses []catalog.Value
}

// NewCatalogAdapter creates the initial-import adapter.
func NewCatalogAdapter(cat *catalog.Service, products *product.Service, st *stock.Service, defaultSupplier string, quantity int) *CatalogAdapter {
	return &CatalogAdapter{
		catalog:         cat,
		products:        products,
		stock:           st,
		defaultSupplier: defaultSupplier,
		quantity:        quantity,
	}
}

func (a *CatalogAdapter) Name() string { return "catalog_import" }

func (a *CatalogAdapter) Key(row reconcile.Row) (string, error) { return gtinKey(row) }

var requiredFields = []string{FieldCategory, FieldSubcategory, FieldBrand, FieldName, FieldColor, FieldSize}

// Validate rejects rows missing a required descriptive field.
func (a *CatalogAdapter) Validate(row reconcile.Row, _ string) error {
	var missing []string
	for _, f := range requiredFields {
		if row.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	if row.Get(FieldSupplier) == "" && strings.TrimSpace(a.defaultSupplier) == "" {
		missing = append(missing, FieldSupplier)
	}
	if len(missing) > 0 {
		return apperror.InvalidInput("importer.Validate", "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Prepare loads the warehouse list every row is stocked into.
func (a *CatalogAdapter) Prepare(ctx context.Context) error {
	warehouses, err := a.catalog.List(ctx, catalog.Warehouses)
	if err != nil {
		return err
	}
	if len(warehouses) == 0 {
		return apperror.NotFound("importer.Prepare", "no warehouses configured")
	}
	a.warehouses = warehouses
	return nil
}

// Apply runs the full pipeline for one row. On failure the returned effects still
// count what was created before the failing step.
func (a *CatalogAdapter) Apply(ctx context.Context, row reconcile.Row, gtin string) (reconcile.Effects, error) {
	effects := reconcile.Effects{}
	resolve := func(dim catalog.Dimension, name string) (int64, error) {
		id, created, err := a.catalog.GetOrCreate(ctx, dim, name)
		if err != nil {
			return 0, fmt.Errorf("%s %q: %w", dim, name, err)
		}
		if created {
			effects[string(dim)+"_created"]++
		}
		return id, nil
	}

	supplier := row.Get(FieldSupplier)
	if supplier == "" {
		supplier = a.defaultSupplier
	}

	var key product.ModelKey
	var err error
	if key.SupplierID, err = resolve(catalog.Suppliers, supplier); err != nil {
		return effects, err
	}
	if key.BrandID, err = resolve(catalog.Brands, row.Get(FieldBrand)); err != nil {
		return effects, err
	}
	if key.CategoryID, err = resolve(catalog.Categories, row.Get(FieldCategory)); err != nil {
		return effects, err
	}
	sub, created, err := a.catalog.GetOrCreateSubcategory(ctx, key.CategoryID, row.Get(FieldSubcategory))
	if err != nil {
		return effects, fmt.Errorf("subcategory %q: %w", row.Get(FieldSubcategory), err)
	}
	if created {
		effects["subcategories_created"]++
	}
	key.SubcategoryID = sub
	colorID, err := resolve(catalog.Colors, row.Get(FieldColor))
	if err != nil {
		return effects, err
	}
	sizeID, err := resolve(catalog.Sizes, row.Get(FieldSize))
	if err != nil {
		return effects, err
	}

	key.DisplayName = row.Get(FieldName)
	modelID, created, err := a.products.ResolveOrCreateModel(ctx, key, utils.OptionalString(row.Get(FieldRefKeyInvoice)))
	if err != nil {
		return effects, err
	}
	if created {
		effects["models_created"]++
	} else {
		effects["models_reused"]++
	}

	variantID, created, err := a.upsertVariant(ctx, effects, product.NewVariant{
		ModelID:      modelID,
		GTIN:         gtin,
		ColorID:      colorID,
		SizeID:       sizeID,
		ExternalRefA: utils.OptionalInt64(row.Get(FieldRefWooCommerce)),
	})
	if err != nil {
		return effects, err
	}

	for _, w := range a.warehouses {
		if err := a.stock.SetStock(ctx, variantID, w.ID, a.quantity); err != nil {
			if created && effects["stock_rows_set"] == 0 && a.stock.DiscardUnstocked(ctx, variantID) {
				effects["variants_discarded"]++
			}
			return effects, fmt.Errorf("warehouse %q: %w", w.Name, err)
		}
		effects["stock_rows_set"]++
	}
	return effects, nil
}

// upsertVariant creates the variant or, when the GTIN exists, refreshes its color,
// size and reference. The GTIN and owning model of an existing variant are kept.
func (a *CatalogAdapter) upsertVariant(ctx context.Context, effects reconcile.Effects, nv product.NewVariant) (int64, bool, error) {
	id, err := a.products.CreateVariant(ctx, nv)
	if err == nil {
		effects["variants_created"]++
		return id, true, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return 0, false, err
	}

	view, err := a.products.FindVariantByGTIN(ctx, nv.GTIN)
	if err != nil {
		return 0, false, err
	}
	upd := product.VariantUpdate{ColorID: &nv.ColorID, SizeID: &nv.SizeID}
	if nv.ExternalRefA != nil {
		upd.ExternalRefA = nv.ExternalRefA
	}
	if _, err := a.products.UpdateVariant(ctx, view.VariantID, upd); err != nil {
		return 0, false, err
	}
	effects["variants_updated"]++
	return view.VariantID, false, nil
}

// Op is a bulk stock operation.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpSet    Op = "set"
)

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpAdd, OpRemove, OpSet:
		return op, nil
	}
	return "", apperror.InvalidInput("importer.ParseOp", "unknown stock operation %q", s)
}

// StockAdapter applies one stock operation to every listed GTIN in one warehouse.
// A row's quantity column overrides the batch quantity.
type StockAdapter struct {
	products    *product.Service
	stock       *stock.Service
	catalog     *catalog.Service
	op          Op
	warehouseID int64
	quantity    int
}

// NewStockAdapter creates the bulk-update adapter.
func NewStockAdapter(cat *catalog.Service, products *product.Service, st *stock.Service, op Op, warehouseID int64, quantity int) *StockAdapter {
	return &StockAdapter{
		products:    products,
		stock:       st,
		catalog:     cat,
		op:          op,
		warehouseID: warehouseID,
		quantity:    quantity,
	}
}

func (a *StockAdapter) Name() string { return "stock_" + string(a.op) }

func (a *StockAdapter) Key(row reconcile.Row) (string, error) { return gtinKey(row) }

// quantityOf reads the row's quantity cell, falling back to the batch quantity
// when the cell is blank. A cell that is not a whole number fails with InvalidInput.
func (a *StockAdapter) quantityOf(row reconcile.Row) (int, error) {
	cell := row.Get(FieldQuantity)
	if cell == "" {
		return a.quantity, nil
	}
	q, ok := utils.ParseWholeNumber(cell)
	if !ok {
		return 0, apperror.InvalidInput("importer.quantity", "quantity %q is not a whole number", cell)
	}
	return q, nil
}

// Validate checks the quantity against the operation before anything is written.
func (a *StockAdapter) Validate(row reconcile.Row, _ string) error {
	const op = "importer.Validate"
	q, err := a.quantityOf(row)
	if err != nil {
		return err
	}
	if a.op == OpSet && q < 0 {
		return apperror.InvalidInput(op, "quantity must not be negative, got %d", q)
	}
	if a.op != OpSet && q <= 0 {
		return apperror.InvalidInput(op, "quantity must be positive, got %d", q)
	}
	return nil
}

// Prepare checks the target warehouse exists.
func (a *StockAdapter) Prepare(ctx context.Context) error {
	return a.catalog.Exists(ctx, catalog.Warehouses, a.warehouseID)
}

// Apply resolves the GTIN and applies the operation.
func (a *StockAdapter) Apply(ctx context.Context, row reconcile.Row, gtin string) (reconcile.Effects, error) {
	view, err := a.products.FindVariantByGTIN(ctx, gtin)
	if err != nil {
		return nil, err
	}
	q, err := a.quantityOf(row)
	if err != nil {
		return nil, err
	}
	switch a.op {
	case OpAdd:
		_, err = a.stock.AddStock(ctx, view.VariantID, a.warehouseID, q)
	case OpRemove:
		_, err = a.stock.RemoveStock(ctx, view.VariantID, a.warehouseID, q)
	default:
		err = a.stock.SetStock(ctx, view.VariantID, a.warehouseID, q)
	}
	if err != nil {
		return nil, err
	}
	return reconcile.Effects{"stock_" + string(a.op): 1, "units": q}, nil
}
