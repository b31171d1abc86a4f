// Package reconcile is the bulk reconciliation engine.
//
// It drives a per-row pipeline over an already-parsed sequence of rows
// (spreadsheet lines, webhook line items) and reports a tally plus the list of
// failed rows. A row failure never aborts the batch.
//
// # Workflow
//
// Plan extracts each row's natural key through the Adapter and classifies rows
// that have none (SkippedNoKey), rows whose key is malformed (RejectedInvalidKey)
// and rows failing adapter validation (RejectedError). Everything else is left
// Pending. Apply then runs the adapter on each pending row, recording OK or
// RejectedError with the error kind:
//
//	report := reconcile.Plan(spec, rows)
//	printReport(report)
//	if confirmed {
//	    err = reconcile.Apply(ctx, spec, report, reconcile.Options{Confirmed: true})
//	}
//
// Apply does nothing unless the options are confirmed and not a dry run, so
// the CLI can show a plan before writing.
//
// # Restart
//
// Every row is its own unit of work. A batch interrupted half way leaves the
// applied rows committed; running the same input again is safe because the
// adapters use get-or-create and absolute stock writes.
package reconcile
