package product

// Model is a product definition independent of color and size.
// The identity tuple (display name, brand, category, subcategory, supplier) is unique.
type Model struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	ExternalRef   *string `gorm:"size:64" json:"external_ref"`
	DisplayName   string  `gorm:"size:255;not null;uniqueIndex:idx_product_models_identity" json:"display_name"`
	BrandID       int64   `gorm:"not null;uniqueIndex:idx_product_models_identity" json:"brand_id"`
	CategoryID    int64   `gorm:"not null;uniqueIndex:idx_product_models_identity" json:"category_id"`
	SubcategoryID int64   `gorm:"not null;uniqueIndex:idx_product_models_identity" json:"subcategory_id"`
	SupplierID    int64   `gorm:"not null;uniqueIndex:idx_product_models_identity" json:"supplier_id"`
}

func (Model) TableName() string { return "product_models" }

// Variant is one color and size of a Model, identified globally by GTIN.
type Variant struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	ModelID      int64   `gorm:"not null;index" json:"model_id"`
	GTIN         string  `gorm:"column:gtin;size:32;not null;uniqueIndex" json:"gtin"`
	ColorID      int64   `gorm:"not null" json:"color_id"`
	SizeID       int64   `gorm:"not null" json:"size_id"`
	ExternalRefA *int64  `json:"external_ref_a"`
	ExternalRefB *string `gorm:"size:64" json:"external_ref_b"`
}

func (Variant) TableName() string { return "product_variants" }

// ModelKey is the identity tuple a model is resolved by.
type ModelKey struct {
	DisplayName   string `json:"display_name"`
	BrandID       int64  `json:"brand_id"`
	CategoryID    int64  `json:"category_id"`
	SubcategoryID int64  `json:"subcategory_id"`
	SupplierID    int64  `json:"supplier_id"`
}

// ModelUpdate lists the model fields an edit may change. Nil fields are kept.
type ModelUpdate struct {
	DisplayName   *string `json:"display_name"`
	BrandID       *int64  `json:"brand_id"`
	CategoryID    *int64  `json:"category_id"`
	SubcategoryID *int64  `json:"subcategory_id"`
	SupplierID    *int64  `json:"supplier_id"`
	ExternalRef   *string `json:"external_ref"`
}

// NewVariant carries the fields of a variant to create.
type NewVariant struct {
	ModelID      int64   `json:"model_id"`
	GTIN         string  `json:"gtin"`
	ColorID      int64   `json:"color_id"`
	SizeID       int64   `json:"size_id"`
	ExternalRefA *int64  `json:"external_ref_a"`
	ExternalRefB *string `json:"external_ref_b"`
}

// VariantUpdate lists the variant fields an edit may change. The GTIN is immutable.
type VariantUpdate struct {
	ColorID      *int64  `json:"color_id"`
	SizeID       *int64  `json:"size_id"`
	ExternalRefA *int64  `json:"external_ref_a"`
	ExternalRefB *string `json:"external_ref_b"`
}

// VariantView is a variant joined with its model and reference names.
type VariantView struct {
	VariantID        int64   `json:"variant_id"`
	GTIN             string  `gorm:"column:gtin" json:"gtin"`
	ModelID          int64   `json:"model_id"`
	DisplayName      string  `json:"display_name"`
	ModelExternalRef *string `json:"model_external_ref"`
	BrandID          int64   `json:"brand_id"`
	BrandName        string  `json:"brand_name"`
	CategoryID       int64   `json:"category_id"`
	CategoryName     string  `json:"category_name"`
	SubcategoryID    int64   `json:"subcategory_id"`
	SubcategoryName  string  `json:"subcategory_name"`
	SupplierID       int64   `json:"supplier_id"`
	SupplierName     string  `json:"supplier_name"`
	ColorID          int64   `json:"color_id"`
	ColorName        string  `json:"color_name"`
	SizeID           int64   `json:"size_id"`
	SizeValue        string  `json:"size_value"`
	ExternalRefA     *int64  `json:"external_ref_a"`
	ExternalRefB     *string `json:"external_ref_b"`
}

// Models returns the tables owned by this package.
func Models() []any {
	return []any{&Model{}, &Variant{}}
}
