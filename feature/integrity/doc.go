// Package integrity reports on the health of the inventory data and its infrastructure.
//
// The stock and catalog services never produce inconsistent rows on their own, so
// every violation found here points at a manual edit, an interrupted migration or a
// schema drift.
//
// # Checks Provided
//
//   - Invariants: orphan variants, negative quantities, stock rows pointing at
//     missing variants or warehouses, and duplicated names, model identities and GTINs.
//   - Schema: every column of every mapped model exists in the connected database.
//   - Storage: the import bucket exists; counts stored reject reports.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/invariants : Runs the invariant check (supports ?fix=true to purge orphans).
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
package integrity
