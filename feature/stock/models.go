package stock

import "sapataria/feature/product"

// Entry is the quantity of one variant held in one warehouse.
type Entry struct {
	VariantID   int64 `gorm:"primaryKey;autoIncrement:false" json:"variant_id"`
	WarehouseID int64 `gorm:"primaryKey;autoIncrement:false;index" json:"warehouse_id"`
	Quantity    int   `gorm:"not null;default:0;check:chk_stock_entries_quantity,quantity >= 0" json:"quantity"`
}

func (Entry) TableName() string { return "stock_entries" }

// WarehouseStock is the quantity of a variant in one named warehouse.
type WarehouseStock struct {
	WarehouseID   int64  `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
	Quantity      int    `json:"quantity"`
}

// Detail is a variant view together with its stock in every warehouse that holds a row.
type Detail struct {
	product.VariantView
	Stocks []WarehouseStock `json:"stocks"`
	Total  int              `json:"total"`
}

// WarehouseRow is one line of a warehouse stock listing.
type WarehouseRow struct {
	GTIN     string `gorm:"column:gtin" json:"gtin"`
	Model    string `json:"model"`
	Brand    string `json:"brand"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// RegisterRequest describes a product to register with an initial quantity.
type RegisterRequest struct {
	product.ModelKey
	ModelExternalRef *string `json:"model_external_ref"`
	GTIN             string  `json:"gtin"`
	ColorID          int64   `json:"color_id"`
	SizeID           int64   `json:"size_id"`
	ExternalRefA     *int64  `json:"external_ref_a"`
	ExternalRefB     *string `json:"external_ref_b"`
	WarehouseID      int64   `json:"warehouse_id"`
	Quantity         int     `json:"quantity"`
}

// RegisterResult reports what Register created.
type RegisterResult struct {
	VariantID      int64 `json:"variant_id"`
	ModelID        int64 `json:"model_id"`
	ModelCreated   bool  `json:"model_created"`
	VariantCreated bool  `json:"variant_created"`
}

// Models returns the tables owned by this package.
func Models() []any {
	return []any{&Entry{}}
}
