package reconcile

import (
	"context"
	"errors"
	"fmt"

	"sapataria/core/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Plan classifies every row without writing anything. Rows with a usable key
// that pass validation are left Pending for Apply.
func Plan(spec *Spec, rows []Row) *Report {
	report := &Report{
		RunID:   uuid.NewString(),
		Adapter: spec.Adapter.Name(),
		Tally:   Tally{Effects: Effects{}},
		Results: make([]RowResult, 0, len(rows)),
	}
	validator, _ := spec.Adapter.(Validator)

	for _, row := range rows {
		report.Tally.Total++
		res := RowResult{Index: row.Index, Fields: row.Fields}

		key, err := spec.Adapter.Key(row)
		switch {
		case errors.Is(err, ErrNoKey):
			res.Outcome = OutcomeSkippedNoKey
			res.Reason = err.Error()
			report.Tally.SkippedNoKey++
			report.Results = append(report.Results, res)
			continue
		case err != nil:
			res.Outcome = OutcomeRejectedInvalidKey
			res.Kind = apperror.KindInvalidInput.String()
			res.Reason = err.Error()
			report.Tally.Processed++
			report.Tally.RejectedInvalidKey++
			report.Results = append(report.Results, res)
			continue
		}

		res.Key = key
		report.Tally.Processed++

		if validator != nil {
			if err := validator.Validate(row, key); err != nil {
				res.Outcome = OutcomeRejectedError
				res.Kind = apperror.KindOf(err).String()
				res.Reason = err.Error()
				report.Tally.RejectedError++
				report.Results = append(report.Results, res)
				continue
			}
		}

		res.Outcome = OutcomePending
		report.Tally.Pending++
		report.Results = append(report.Results, res)
	}

	return report
}

// Apply runs the pending rows of a planned report, one isolated unit per row.
// Nothing is written unless opts.Confirmed is set and opts.DryRun is not.
// The returned error is non-nil only when the batch could not run at all
// (Prepare failed) or ctx was cancelled; rows already applied stay applied.
func Apply(ctx context.Context, spec *Spec, report *Report, opts Options) error {
	log := spec.logger().With(zap.String("run_id", report.RunID), zap.String("adapter", report.Adapter))

	if !opts.Confirmed || opts.DryRun {
		report.DryRun = true
		observeFinal(spec, report)
		return nil
	}

	if report.Tally.Pending > 0 {
		if preparer, ok := spec.Adapter.(Preparer); ok {
			if err := preparer.Prepare(ctx); err != nil {
				return fmt.Errorf("failed to prepare %s batch: %w", report.Adapter, err)
			}
		}
	}

	for i := range report.Results {
		res := &report.Results[i]
		if res.Outcome != OutcomePending {
			continue
		}
		if err := ctx.Err(); err != nil {
			observeFinal(spec, report)
			return err
		}

		row := Row{Index: res.Index, Fields: res.Fields}
		effects, err := spec.Adapter.Apply(ctx, row, res.Key)
		report.Tally.Pending--
		for name, n := range effects {
			report.Tally.Effects[name] += n
		}

		if err != nil {
			res.Outcome = OutcomeRejectedError
			res.Kind = apperror.KindOf(err).String()
			res.Reason = err.Error()
			report.Tally.RejectedError++
			log.Warn("Row rejected",
				zap.Int("row", res.Index),
				zap.String("key", res.Key),
				zap.String("kind", res.Kind),
				zap.Error(err))
			continue
		}

		res.Outcome = OutcomeOK
		report.Tally.OK++
	}

	observeFinal(spec, report)
	return nil
}

// Run plans and applies rows in one call.
func Run(ctx context.Context, spec *Spec, rows []Row, opts Options) (*Report, error) {
	report := Plan(spec, rows)
	err := Apply(ctx, spec, report, opts)
	return report, err
}

func observeFinal(spec *Spec, report *Report) {
	for _, res := range report.Results {
		if res.Outcome == OutcomePending && !report.DryRun {
			continue
		}
		spec.Metrics.ObserveRow(report.Adapter, string(res.Outcome))
	}

	t := report.Tally
	spec.logger().Info("Batch finished",
		zap.String("run_id", report.RunID),
		zap.String("adapter", report.Adapter),
		zap.Bool("dry_run", report.DryRun),
		zap.Int("total", t.Total),
		zap.Int("processed", t.Processed),
		zap.Int("ok", t.OK),
		zap.Int("skipped_no_key", t.SkippedNoKey),
		zap.Int("rejected_invalid_key", t.RejectedInvalidKey),
		zap.Int("rejected_error", t.RejectedError),
		zap.Int("pending", t.Pending),
		zap.Any("effects", t.Effects),
	)
}
