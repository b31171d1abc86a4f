package reconcile

import (
	"context"
	"errors"
)

// ErrNoKey is returned by Adapter.Key when the row carries no natural key at all.
var ErrNoKey = errors.New("row has no key")

// Adapter runs the per-row pipeline for one kind of input.
type Adapter interface {
	// Name identifies the adapter in logs and metrics.
	Name() string

	// Key extracts and normalizes the row's natural key. It returns ErrNoKey when
	// the key field is absent or blank, and any other error when it is present
	// but malformed.
	Key(row Row) (string, error)

	// Apply runs the pipeline for one row. Errors are recorded against the row;
	// they never stop the batch. Effects returned with an error are still counted.
	Apply(ctx context.Context, row Row, key string) (Effects, error)
}

// Validator is implemented by adapters that can reject rows without touching
// the store, so dry runs report them too.
type Validator interface {
	Validate(row Row, key string) error
}

// Preparer is implemented by adapters that need batch-level state (such as the
// warehouse list) before the first row is applied. A Prepare error aborts the
// batch before any row is written.
type Preparer interface {
	Prepare(ctx context.Context) error
}
