package reconcile

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteRejects writes the failed rows of report as CSV: row index, outcome,
// reason, then the original values of columns.
func WriteRejects(w io.Writer, report *Report, columns []string) error {
	cw := csv.NewWriter(w)

	header := append([]string{"row_index", "outcome", "reason"}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, res := range report.Failures() {
		record := make([]string, 0, len(header))
		record = append(record, strconv.Itoa(res.Index), string(res.Outcome), res.Reason)
		for _, col := range columns {
			record = append(record, res.Fields[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
