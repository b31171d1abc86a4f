// Package audit carries the side channel every inventory mutation reports to.
//
// Services call Record with the action, the affected entity and a small details
// map; the configured Sink decides whether the event is dropped, logged through
// zap or persisted to the audit_logs table. The acting user travels in the
// request context (WithActor) so services do not need an extra parameter.
package audit
