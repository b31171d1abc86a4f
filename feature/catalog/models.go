package catalog

// Dimension names a reference table.
type Dimension string

const (
	Brands        Dimension = "brands"
	Categories    Dimension = "categories"
	Colors        Dimension = "colors"
	Sizes         Dimension = "sizes"
	Suppliers     Dimension = "suppliers"
	Warehouses    Dimension = "warehouses"
	Subcategories Dimension = "subcategories"
)

// Brand is a shoe brand.
type Brand struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;not null;uniqueIndex" json:"name"`
}

func (Brand) TableName() string { return "brands" }

// Category is the first level of the category tree.
type Category struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;not null;uniqueIndex" json:"name"`
}

func (Category) TableName() string { return "categories" }

// Subcategory belongs to exactly one Category; its name is unique within it.
type Subcategory struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	CategoryID int64  `gorm:"not null;uniqueIndex:idx_subcategories_category_name" json:"category_id"`
	Name       string `gorm:"size:120;not null;uniqueIndex:idx_subcategories_category_name" json:"name"`
}

func (Subcategory) TableName() string { return "subcategories" }

type Color struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:80;not null;uniqueIndex" json:"name"`
}

func (Color) TableName() string { return "colors" }

// Size is keyed by value ("38", "42.5") rather than name.
type Size struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Value string `gorm:"size:40;not null;uniqueIndex" json:"value"`
}

func (Size) TableName() string { return "sizes" }

type Supplier struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;not null;uniqueIndex" json:"name"`
}

func (Supplier) TableName() string { return "suppliers" }

type Warehouse struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;not null;uniqueIndex" json:"name"`
}

func (Warehouse) TableName() string { return "warehouses" }

// Value is the listing shape shared by every dimension.
type Value struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type dimensionSpec struct {
	table  string
	column string
	newRow func(name string) any
}

var dimensions = map[Dimension]dimensionSpec{
	Brands:     {"brands", "name", func(n string) any { return &Brand{Name: n} }},
	Categories: {"categories", "name", func(n string) any { return &Category{Name: n} }},
	Colors:     {"colors", "name", func(n string) any { return &Color{Name: n} }},
	Sizes:      {"sizes", "value", func(n string) any { return &Size{Value: n} }},
	Suppliers:  {"suppliers", "name", func(n string) any { return &Supplier{Name: n} }},
	Warehouses: {"warehouses", "name", func(n string) any { return &Warehouse{Name: n} }},
}

// ParseDimension validates a flat dimension name.
func ParseDimension(s string) (Dimension, bool) {
	d := Dimension(s)
	_, ok := dimensions[d]
	return d, ok
}

// Models returns the tables owned by this package.
func Models() []any {
	return []any{&Brand{}, &Category{}, &Subcategory{}, &Color{}, &Size{}, &Supplier{}, &Warehouse{}}
}
