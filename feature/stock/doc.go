// Package stock implements the per-warehouse stock ledger.
//
// Every mutation runs in a transaction that first locks the variant row, so
// writers of one variant are serialized. Quantities never go negative: a
// removal larger than the stored quantity fails with
// *apperror.InsufficientStockError. Deleting the last stock row of a variant
// deletes the variant in the same transaction.
package stock
