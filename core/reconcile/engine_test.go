package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sapataria/core/apperror"
	"sapataria/core/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAdapter keys rows by their "code" field; codes shorter than 3 are malformed.
type mockAdapter struct {
	applied    []string
	failOn     map[string]error
	prepareErr error
	prepared   int
}

func (m *mockAdapter) Name() string { return "mock" }

func (m *mockAdapter) Key(row Row) (string, error) {
	code := row.Get("code")
	if code == "" {
		return "", ErrNoKey
	}
	if len(code) < 3 {
		return "", fmt.Errorf("code %q too short", code)
	}
	return code, nil
}

func (m *mockAdapter) Validate(row Row, key string) error {
	if row.Get("name") == "" {
		return apperror.InvalidInput("mock", "missing name")
	}
	return nil
}

func (m *mockAdapter) Prepare(ctx context.Context) error {
	m.prepared++
	return m.prepareErr
}

func (m *mockAdapter) Apply(ctx context.Context, row Row, key string) (Effects, error) {
	if err, ok := m.failOn[key]; ok {
		return Effects{"brands_created": 1}, err
	}
	m.applied = append(m.applied, key)
	return Effects{"stock_rows_set": 1}, nil
}

func rows(codes ...string) []Row {
	out := make([]Row, 0, len(codes))
	for i, c := range codes {
		out = append(out, Row{Index: i + 2, Fields: map[string]string{"code": c, "name": "item " + c}})
	}
	return out
}

func TestRun_BatchIsolation(t *testing.T) {
	adapter := &mockAdapter{}
	spec := &Spec{Adapter: adapter}

	input := rows("AAA1", "BBB2", "", "DDD4", "EEE5")
	report, err := Run(context.Background(), spec, input, Options{Confirmed: true})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Tally.Total)
	assert.Equal(t, 4, report.Tally.OK)
	assert.Equal(t, 1, report.Tally.SkippedNoKey)
	assert.Equal(t, 4, report.Tally.Processed)
	assert.Equal(t, 4, report.Tally.Effects["stock_rows_set"])
	assert.Equal(t, []string{"AAA1", "BBB2", "DDD4", "EEE5"}, adapter.applied)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 4, failures[0].Index)
	assert.Equal(t, OutcomeSkippedNoKey, failures[0].Outcome)
}

func TestRun_OutcomeBuckets(t *testing.T) {
	adapter := &mockAdapter{failOn: map[string]error{
		"BAD": apperror.NotFound("mock", "variant BAD"),
	}}
	input := rows("GOOD", "12", "BAD", "")
	input = append(input, Row{Index: 9, Fields: map[string]string{"code": "NONAME"}})

	report, err := Run(context.Background(), &Spec{Adapter: adapter}, input, Options{Confirmed: true})
	require.NoError(t, err)

	byIndex := map[int]RowResult{}
	for _, r := range report.Results {
		byIndex[r.Index] = r
	}

	assert.Equal(t, OutcomeOK, byIndex[2].Outcome)
	assert.Equal(t, OutcomeRejectedInvalidKey, byIndex[3].Outcome)
	assert.Equal(t, OutcomeRejectedError, byIndex[4].Outcome)
	assert.Equal(t, "not_found", byIndex[4].Kind)
	assert.Equal(t, OutcomeSkippedNoKey, byIndex[5].Outcome)
	assert.Equal(t, OutcomeRejectedError, byIndex[9].Outcome)
	assert.Equal(t, "invalid_input", byIndex[9].Kind)

	tally := report.Tally
	assert.Equal(t, tally.Total, tally.SkippedNoKey+tally.Processed)
	assert.Equal(t, tally.Processed, tally.OK+tally.RejectedInvalidKey+tally.RejectedError+tally.Pending)
	assert.Equal(t, 1, tally.OK)
	assert.Equal(t, 1, tally.RejectedInvalidKey)
	assert.Equal(t, 2, tally.RejectedError)
	assert.Equal(t, 1, tally.Effects["stock_rows_set"])
	assert.Equal(t, 1, tally.Effects["brands_created"], "creations before a failing step are counted")
}

func TestApply_RequiresConfirmation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"Unconfirmed", Options{}},
		{"DryRun", Options{DryRun: true, Confirmed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &mockAdapter{}
			report, err := Run(context.Background(), &Spec{Adapter: adapter}, rows("AAA1", "BBB2"), tt.opts)
			require.NoError(t, err)

			assert.True(t, report.DryRun)
			assert.Empty(t, adapter.applied)
			assert.Equal(t, 0, adapter.prepared)
			assert.Equal(t, 2, report.Tally.Pending)
			assert.Empty(t, report.Failures())
		})
	}
}

func TestApply_PrepareFailureAbortsBeforeWrites(t *testing.T) {
	adapter := &mockAdapter{prepareErr: errors.New("no warehouses configured")}
	report, err := Run(context.Background(), &Spec{Adapter: adapter}, rows("AAA1"), Options{Confirmed: true})

	assert.ErrorContains(t, err, "no warehouses configured")
	assert.Empty(t, adapter.applied)
	assert.Equal(t, 1, report.Tally.Pending)
}

func TestApply_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &mockAdapter{}
	report, err := Run(ctx, &Spec{Adapter: adapter}, rows("AAA1", "BBB2"), Options{Confirmed: true})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, adapter.applied)
	assert.Equal(t, 2, report.Tally.Pending)
}

func TestApply_Metrics(t *testing.T) {
	m := metrics.New()
	adapter := &mockAdapter{}
	_, err := Run(context.Background(), &Spec{Adapter: adapter, Metrics: m}, rows("AAA1", "", "BBB2"), Options{Confirmed: true})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchRows.WithLabelValues("mock", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchRows.WithLabelValues("mock", "skipped_no_key")))
}

func TestWriteRejects(t *testing.T) {
	adapter := &mockAdapter{}
	report, err := Run(context.Background(), &Spec{Adapter: adapter}, rows("AAA1", "9", ""), Options{Confirmed: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRejects(&buf, report, []string{"code", "name"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "row_index,outcome,reason,code,name", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "3,rejected_invalid_key,"))
	assert.True(t, strings.HasPrefix(lines[2], "4,skipped_no_key,"))
}

func TestRowGet(t *testing.T) {
	row := Row{Fields: map[string]string{"brand": "  Nike ", "color": "nan"}}
	assert.Equal(t, "Nike", row.Get("brand"))
	assert.Equal(t, "", row.Get("color"))
	assert.Equal(t, "", row.Get("missing"))
}
