// Package catalog is the reference catalog: brands, categories, subcategories,
// colors, sizes, suppliers and warehouses.
//
// Values are created lazily on first reference and never renamed or deleted.
// GetOrCreate trims the name and matches it exactly (case-sensitive); callers
// wanting case-insensitive reuse normalize first. Creation is an insert that
// ignores unique-key conflicts followed by a re-select, so two concurrent
// callers asking for the same new name both get the one row that won.
//
// Subcategories are scoped by category: the same name may exist under two
// categories, and the category must exist.
package catalog
