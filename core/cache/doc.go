// Package cache remembers the ids of reference rows (brands, colors, sizes...)
// so bulk imports do not query the same dimension value once per row.
//
// Reference rows are never renamed or deleted, which makes a cached id valid for
// as long as the row exists. Keys are the exact, case-sensitive names; callers
// that want case-insensitive reuse normalize before looking up.
//
// The memory backend serves a single process; the redis backend (go-redis)
// shares ids between the API server and CLI imports. Resolver adds singleflight
// so concurrent requests for the same missing key run one database round trip.
package cache
