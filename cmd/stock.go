package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"sapataria/core/audit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	stockVariant   int64
	stockWarehouse int64
	stockQuantity  int
)

// stockCmd groups the single-row ledger operations.
var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Read and change individual stock rows",
}

var stockSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the quantity of a variant in a warehouse",
	RunE: withStock(func(ctx context.Context, rt *runtime, args []string) error {
		if err := rt.stock.SetStock(ctx, stockVariant, stockWarehouse, stockQuantity); err != nil {
			return err
		}
		rt.logger.Info("Stock set", zap.Int64("variant_id", stockVariant), zap.Int64("warehouse_id", stockWarehouse), zap.Int("quantity", stockQuantity))
		return nil
	}),
}

var stockAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add units of a variant to a warehouse",
	RunE: withStock(func(ctx context.Context, rt *runtime, args []string) error {
		after, err := rt.stock.AddStock(ctx, stockVariant, stockWarehouse, stockQuantity)
		if err != nil {
			return err
		}
		rt.logger.Info("Stock added", zap.Int64("variant_id", stockVariant), zap.Int64("warehouse_id", stockWarehouse), zap.Int("quantity", after))
		return nil
	}),
}

var stockRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove units of a variant from a warehouse",
	RunE: withStock(func(ctx context.Context, rt *runtime, args []string) error {
		after, err := rt.stock.RemoveStock(ctx, stockVariant, stockWarehouse, stockQuantity)
		if err != nil {
			return err
		}
		rt.logger.Info("Stock removed", zap.Int64("variant_id", stockVariant), zap.Int64("warehouse_id", stockWarehouse), zap.Int("quantity", after))
		return nil
	}),
}

var stockDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a stock row; the variant goes with its last row",
	RunE: withStock(func(ctx context.Context, rt *runtime, args []string) error {
		variantDeleted, err := rt.stock.DeleteStockRow(ctx, stockVariant, stockWarehouse)
		if err != nil {
			return err
		}
		rt.logger.Info("Stock row deleted", zap.Int64("variant_id", stockVariant), zap.Int64("warehouse_id", stockWarehouse), zap.Bool("variant_deleted", variantDeleted))
		return nil
	}),
}

var stockSellCmd = &cobra.Command{
	Use:   "sell <gtin>",
	Short: "Sell units of the variant with the given GTIN",
	Args:  cobra.ExactArgs(1),
	RunE: withStock(func(ctx context.Context, rt *runtime, args []string) error {
		warehouse := stockWarehouse
		if warehouse == 0 {
			warehouse = rt.cfg.Server.DefaultWarehouseID
		}
		left, err := rt.stock.Sell(ctx, args[0], stockQuantity, warehouse)
		if err != nil {
			return err
		}
		rt.logger.Info("Sold", zap.String("gtin", args[0]), zap.Int64("warehouse_id", warehouse), zap.Int("left", left))
		return nil
	}),
}

var stockShowCmd = &cobra.Command{
	Use:   "show <gtin>",
	Short: "Print a variant and its stock in every warehouse",
	Args:  cobra.ExactArgs(1),
	RunE: withStock(func(ctx context.Context, rt *runtime, args []string) error {
		detail, err := rt.stock.Detail(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	}),
}

// withStock bootstraps the services and runs fn with a CLI audit actor.
func withStock(fn func(ctx context.Context, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := audit.WithActor(context.Background(), "cli:stock")
		rt, err := bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer rt.logger.Sync()
		if err := fn(ctx, rt, args); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		return nil
	}
}

func init() {
	for _, c := range []*cobra.Command{stockSetCmd, stockAddCmd, stockRemoveCmd, stockDeleteCmd} {
		c.Flags().Int64Var(&stockVariant, "variant", 0, "Variant id")
		c.Flags().Int64Var(&stockWarehouse, "warehouse", 0, "Warehouse id")
		_ = c.MarkFlagRequired("variant")
		_ = c.MarkFlagRequired("warehouse")
	}
	for _, c := range []*cobra.Command{stockSetCmd, stockAddCmd, stockRemoveCmd} {
		c.Flags().IntVar(&stockQuantity, "quantity", 0, "Quantity")
		_ = c.MarkFlagRequired("quantity")
	}
	stockSellCmd.Flags().Int64Var(&stockWarehouse, "warehouse", 0, "Warehouse id (default: server.default_warehouse_id)")
	stockSellCmd.Flags().IntVar(&stockQuantity, "quantity", 1, "Units sold")

	stockCmd.AddCommand(stockSetCmd, stockAddCmd, stockRemoveCmd, stockDeleteCmd, stockSellCmd, stockShowCmd)
	RootCmd.AddCommand(stockCmd)
}
