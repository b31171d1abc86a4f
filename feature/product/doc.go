// Package product manages shoe models and their variants.
//
// A model is resolved by the exact tuple of display name, brand, category,
// subcategory and supplier. A variant is one color and size of a model and is
// identified by its GTIN, which never changes once created.
package product
