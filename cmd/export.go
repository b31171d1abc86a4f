package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOut    string
	exportUpload bool
)

// exportCmd writes the stock of one warehouse as an xlsx workbook.
var exportCmd = &cobra.Command{
	Use:   "export <warehouse-id>",
	Short: "Export the stock of a warehouse to xlsx",
	Long: `Writes every stock row of the warehouse to a workbook. With --upload the
workbook is stored in the reports prefix of the bucket instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		warehouseID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || warehouseID <= 0 {
			return fmt.Errorf("invalid warehouse id %q", args[0])
		}

		ctx := context.Background()
		rt, err := bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if exportUpload {
			key, err := rt.importer.StoreExport(ctx, warehouseID)
			if err != nil {
				return err
			}
			rt.logger.Info("Export uploaded", zap.String("key", key))
			return nil
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("warehouse_%d.xlsx", warehouseID)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()

		if err := rt.importer.ExportWarehouse(ctx, warehouseID, f); err != nil {
			return err
		}
		rt.logger.Info("Export written", zap.String("file", out))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default warehouse_<id>.xlsx)")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Upload to the storage bucket instead of writing a file")
	RootCmd.AddCommand(exportCmd)
}
