package reconcile

import (
	"sapataria/core/metrics"
	"sapataria/core/utils"

	"go.uber.org/zap"
)

// Row is one already-parsed input record: a spreadsheet line or a webhook line item.
type Row struct {
	// Index locates the row in its source (spreadsheet line number, line item position).
	Index int `json:"index"`
	// Fields holds the raw values keyed by canonical field name.
	Fields map[string]string `json:"fields"`
}

// Get returns the trimmed value of field, treating spreadsheet placeholders as empty.
func (r Row) Get(field string) string {
	return utils.CleanString(r.Fields[field])
}

// Outcome is the final classification of a row.
type Outcome string

const (
	// OutcomePending marks a planned row that was not applied (dry run or unconfirmed).
	OutcomePending Outcome = "pending"
	// OutcomeOK marks a row whose pipeline completed.
	OutcomeOK Outcome = "ok"
	// OutcomeSkippedNoKey marks a row without a natural key.
	OutcomeSkippedNoKey Outcome = "skipped_no_key"
	// OutcomeRejectedInvalidKey marks a row whose key is present but malformed.
	OutcomeRejectedInvalidKey Outcome = "rejected_invalid_key"
	// OutcomeRejectedError marks a row that failed validation or application.
	OutcomeRejectedError Outcome = "rejected_error"
)

// Effects counts what applying a row did, e.g. {"brands_created": 1, "stock_rows_set": 2}.
type Effects map[string]int

// RowResult is the outcome of one row.
type RowResult struct {
	Index   int               `json:"index"`
	Key     string            `json:"key,omitempty"`
	Outcome Outcome           `json:"outcome"`
	Kind    string            `json:"kind,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"-"`
}

// Tally aggregates row outcomes.
// Total = SkippedNoKey + Processed and Processed = OK + RejectedInvalidKey + RejectedError + Pending.
type Tally struct {
	Total              int     `json:"total"`
	SkippedNoKey       int     `json:"skipped_no_key"`
	Processed          int     `json:"processed"`
	OK                 int     `json:"ok"`
	RejectedInvalidKey int     `json:"rejected_invalid_key"`
	RejectedError      int     `json:"rejected_error"`
	Pending            int     `json:"pending"`
	Effects            Effects `json:"effects"`
}

// Report is the terminal shape of a batch: the tally plus every row result.
// A batch never fails as a whole because of a row; failed rows are listed here.
type Report struct {
	RunID   string      `json:"run_id"`
	Adapter string      `json:"adapter"`
	DryRun  bool        `json:"dry_run"`
	Tally   Tally       `json:"tally"`
	Results []RowResult `json:"-"`
}

// Failures returns the rows that were skipped or rejected.
func (r *Report) Failures() []RowResult {
	var failed []RowResult
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeOK, OutcomePending:
			continue
		}
		failed = append(failed, res)
	}
	return failed
}

// Spec bundles what a batch run needs.
type Spec struct {
	// Adapter provides row-specific key extraction and application.
	Adapter Adapter
	// Logger receives one warning per failed row and the final summary.
	Logger *zap.Logger
	// Metrics counts row outcomes. May be nil.
	Metrics *metrics.Metrics
}

func (s *Spec) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Options controls whether planned rows are applied.
type Options struct {
	// DryRun prevents any mutation if true.
	DryRun bool
	// Confirmed indicates the operator approved the run.
	// If false, rows are planned but not applied regardless of DryRun.
	Confirmed bool
}
