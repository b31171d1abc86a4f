// Package metrics exposes Prometheus counters for the inventory core.
//
// Stock ledger calls are counted per operation and result kind, bulk runs per
// adapter and row outcome, and the HTTP surface per route and status. The
// collectors live on a private registry served by Handler at /metrics.
package metrics
