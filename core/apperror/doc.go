// Package apperror defines the error kinds shared by every inventory operation.
//
// Single-entity operations return an *Error (or an *InsufficientStockError) whose
// kind callers test with errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperror.ErrNotFound) {
//	    ...
//	}
//
// Errors coming from the persistence layer are classified with FromStore so that
// a deadline becomes Timeout, a missing row becomes NotFound, a unique key
// violation becomes Conflict and everything else becomes Unavailable.
package apperror
