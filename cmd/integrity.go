package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sapataria/core/audit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixFlag  bool
	jsonFlag bool
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the inventory data",
	Long:  `Counts rows that break the inventory rules, verifies the schema and checks the import bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(true, true, true)
	},
}

// invariantsCmd represents the integrity invariants command
var invariantsCmd = &cobra.Command{
	Use:   "invariants",
	Short: "Check stock and catalog invariants (--fix purges orphan variants)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(true, false, false)
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check that every mapped column exists in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(false, true, false)
	},
}

// storageCmd represents the integrity storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check the import bucket (--fix creates it)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(invariantsCmd, schemaCmd, storageCmd)

	invariantsCmd.Flags().BoolVar(&fixFlag, "fix", false, "Delete variants without stock rows")
	storageCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the bucket when missing")
	integrityCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Save the detailed report as JSON")
}

func runIntegrityChecks(runInvariants, runSchema, runStorage bool) error {
	ctx := audit.WithActor(context.Background(), "cli:integrity")

	// The schema is inspected as found, without migrating.
	rt, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	logg := rt.logger
	svc := rt.integrity
	defer logg.Sync()

	full := make(map[string]any)

	if runInvariants {
		if fixFlag {
			n, err := svc.PurgeOrphans(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge orphan variants: %w", err)
			}
			logg.Info("Orphan variants purged", zap.Int64("deleted", n))
		}

		logg.Info("Checking invariants...")
		report, err := svc.CheckInvariants(ctx)
		if err != nil {
			return fmt.Errorf("invariant check failed: %w", err)
		}
		full["invariants"] = report

		if report.OK {
			logg.Info("Invariants hold.")
		} else {
			logg.Warn("Invariant violations detected",
				zap.Int("orphan_variants", len(report.OrphanVariants)),
				zap.Int64("negative_quantities", report.NegativeQuantities),
				zap.Int64("dangling_stock_rows", report.DanglingStockRows),
				zap.Int("duplicate_models", len(report.DuplicateModels)),
				zap.Int("duplicate_gtins", len(report.DuplicateGTINs)))
			for table, names := range report.DuplicateNames {
				logg.Warn("Duplicate names", zap.String("table", table), zap.Strings("names", names))
			}
			if len(report.OrphanVariants) > 0 && !fixFlag {
				logg.Info("Run 'integrity invariants --fix' to delete orphan variants.")
			}
		}
	}

	if runSchema {
		logg.Info("Checking schema...", zap.String("driver", rt.cfg.Database.Driver))
		report, err := svc.CheckSchema()
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}
		full["schema"] = report

		if report.Matched {
			logg.Info("Schema matches the mapped models.")
		} else {
			logg.Warn("Schema mismatches found")
			for table, tbl := range report.Tables {
				if tbl.Status != "ok" {
					logg.Warn("Table mismatch",
						zap.String("table", table),
						zap.String("status", tbl.Status),
						zap.Strings("missing_columns", tbl.MissingColumns))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
			logg.Info("Run 'migrate' to create missing tables and columns.")
		}
	}

	if runStorage {
		if !svc.HasStorage() {
			logg.Info("Object storage disabled, skipping storage check.")
		} else {
			logg.Info("Checking import bucket...", zap.String("bucket", rt.cfg.Storage.Bucket))
			report, err := svc.CheckStorage(ctx)
			if err != nil {
				return fmt.Errorf("storage check failed: %w", err)
			}
			full["storage"] = report

			switch {
			case report.Exists:
				logg.Info("Bucket is present.", zap.Int("reports", report.Reports))
			case fixFlag:
				if err := svc.FixStorage(ctx); err != nil {
					return fmt.Errorf("failed to create bucket: %w", err)
				}
			default:
				logg.Warn("Bucket does not exist", zap.String("bucket", report.Bucket))
			}
		}
	}

	if jsonFlag {
		filename := fmt.Sprintf("integrity_%d.json", time.Now().Unix())
		data, err := json.MarshalIndent(full, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return fmt.Errorf("failed to save JSON file: %w", err)
		}
		logg.Info("Detailed JSON report saved", zap.String("file", filename))
	}

	return nil
}
