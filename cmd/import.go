package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"sapataria/core/audit"
	"sapataria/core/reconcile"
	"sapataria/feature/importer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importFile      string
	importObject    string
	importCodes     string
	importMode      string
	importOp        string
	importWarehouse int64
	importQuantity  int
	importSheet     string
	importRejects   string
	importDryRun    bool
	yesConfirm      bool
)

// importCmd runs a spreadsheet batch through the reconciliation engine.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a catalog workbook or apply a bulk stock update",
	Long: `Reads a workbook (local file or storage object) or a list of GTINs and runs
every row through the reconciliation engine. Each row succeeds or fails alone.

The batch is always planned and reported first; nothing is written until the
run is confirmed interactively or with --yes.

Examples:
  # Report what an initial import would do
  import --file catalogo.xlsx --dry-run

  # Initial import, stock 1 in every warehouse
  import --file catalogo.xlsx --yes

  # Add 2 units of each listed GTIN to warehouse 3
  import --mode update --op add --warehouse 3 --quantity 2 --codes "5601234567890,5609876543210"

  # Set stock from a workbook stored in the bucket and keep the rejects
  import --mode update --op set --warehouse 1 --object uploads/contagem.xlsx --rejects rejects.csv`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFile, "file", "", "Local workbook path")
	f.StringVar(&importObject, "object", "", "Workbook object key in the storage bucket")
	f.StringVar(&importCodes, "codes", "", "GTINs separated by commas, semicolons or newlines (update mode)")
	f.StringVar(&importMode, "mode", "import", "Batch mode: import or update")
	f.StringVar(&importOp, "op", "add", "Stock operation for update mode: add, remove or set")
	f.Int64Var(&importWarehouse, "warehouse", 0, "Target warehouse id for update mode")
	f.IntVar(&importQuantity, "quantity", 1, "Quantity per GTIN when the row has no quantity column")
	f.StringVar(&importSheet, "sheet", "", "Workbook sheet (default: configured sheet or the first one)")
	f.StringVar(&importRejects, "rejects", "", "Write skipped and rejected rows to this CSV file")
	f.BoolVar(&importDryRun, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	f.BoolVar(&yesConfirm, "yes", false, "Auto-confirm the run (non-interactive)")

	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := audit.WithActor(context.Background(), "cli:import")

	rt, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	l := rt.logger
	defer l.Sync()

	rows, err := loadRows(ctx, rt)
	if err != nil {
		return err
	}

	var spec *reconcile.Spec
	switch importMode {
	case "import":
		spec = rt.importer.ImportSpec()
	case "update":
		op, err := importer.ParseOp(importOp)
		if err != nil {
			return err
		}
		if importWarehouse <= 0 {
			return fmt.Errorf("--warehouse is required in update mode")
		}
		spec = rt.importer.UpdateSpec(importer.UpdateOptions{Op: op, WarehouseID: importWarehouse, Quantity: importQuantity})
	default:
		return fmt.Errorf("unknown mode %q, expected import or update", importMode)
	}

	l.Info("Planning batch...", zap.String("adapter", spec.Adapter.Name()), zap.Int("rows", len(rows)))
	report := reconcile.Plan(spec, rows)
	printBatchReport(l, report)

	opts := reconcile.Options{DryRun: importDryRun}
	switch {
	case report.Tally.Pending == 0:
		l.Info("No rows to apply.")
	case importDryRun:
		l.Info("Dry-run mode: No changes were made.")
	case confirmBatch():
		opts.Confirmed = true
	default:
		l.Warn("Operation cancelled by user. No changes were made.")
	}

	if opts.Confirmed {
		l.Info("Applying rows...")
	}
	if err := reconcile.Apply(ctx, spec, report, opts); err != nil {
		return fmt.Errorf("failed to apply batch: %w", err)
	}
	if opts.Confirmed {
		printBatchReport(l, report)
	}

	return writeRejects(ctx, rt, report)
}

func loadRows(ctx context.Context, rt *runtime) ([]reconcile.Row, error) {
	switch {
	case importCodes != "":
		if importMode != "update" {
			return nil, fmt.Errorf("--codes is only valid in update mode")
		}
		return importer.ParseCodes(importCodes), nil
	case importObject != "":
		return rt.importer.LoadObject(ctx, importObject, importSheet)
	case importFile != "":
		f, err := os.Open(importFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()
		return rt.importer.ParseWorkbook(f, importSheet)
	default:
		return nil, fmt.Errorf("one of --file, --object or --codes is required")
	}
}

func writeRejects(ctx context.Context, rt *runtime, report *reconcile.Report) error {
	if len(report.Failures()) == 0 {
		return nil
	}
	if importRejects != "" {
		f, err := os.Create(importRejects)
		if err != nil {
			return fmt.Errorf("failed to create rejects file: %w", err)
		}
		defer f.Close()
		if err := reconcile.WriteRejects(f, report, importer.Columns); err != nil {
			return err
		}
		rt.logger.Info("Rejects written", zap.String("file", importRejects))
	}
	if !report.DryRun {
		key, err := rt.importer.StoreRejects(ctx, report)
		if err != nil {
			rt.logger.Warn("Failed to upload rejects", zap.Error(err))
		} else if key != "" {
			rt.logger.Info("Rejects uploaded", zap.String("key", key))
		}
	}
	return nil
}

// printBatchReport logs the tally and a sample of the failed rows.
func printBatchReport(l *zap.Logger, report *reconcile.Report) {
	t := report.Tally

	l.Info("Batch report",
		zap.String("run_id", report.RunID),
		zap.String("adapter", report.Adapter),
		zap.Int("total", t.Total),
		zap.Int("skipped_no_key", t.SkippedNoKey),
		zap.Int("processed", t.Processed),
		zap.Int("ok", t.OK),
		zap.Int("rejected_invalid_key", t.RejectedInvalidKey),
		zap.Int("rejected_error", t.RejectedError),
		zap.Int("pending", t.Pending),
	)
	for name, n := range t.Effects {
		l.Info("Effect", zap.String("name", name), zap.Int("count", n))
	}

	failures := report.Failures()
	maxShow := 5
	if len(failures) < maxShow {
		maxShow = len(failures)
	}
	for _, res := range failures[:maxShow] {
		l.Info("Sample failure",
			zap.Int("row", res.Index),
			zap.String("key", res.Key),
			zap.String("outcome", string(res.Outcome)),
			zap.String("reason", res.Reason),
		)
	}
	if len(failures) > maxShow {
		l.Info("Additional failures not shown", zap.Int("count", len(failures)-maxShow))
	}
}

// confirmBatch prompts the user for confirmation or uses --yes flag.
func confirmBatch() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to apply the batch: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
