// Package importer feeds spreadsheets and code lists through the
// reconciliation engine and exports warehouse stock as xlsx.
//
// Two adapters are provided. CatalogAdapter performs the initial import:
// every dimension, the model and the variant are resolved or created and the
// configured quantity is set in every warehouse. StockAdapter applies one
// add, remove or set operation per GTIN in a single warehouse.
package importer
