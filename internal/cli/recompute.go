package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRecomputeCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "recompute [order-id]",
		Short: "Reprice orders from their line items",
		Long:  "Recompute subtotal, tax and total from stored line items. With an order ID only that order is repriced; without one every live order is.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if workers == 0 {
				workers = cfg.Workers
			}
			store, svc, err := openService(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				orderID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid order ID %q: %w", args[0], err)
				}
				o, err := svc.RecomputeTotals(cmd.Context(), orderID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: total %s\n", o.Number, o.Total.String())
				return nil
			}

			n, err := svc.RecomputeAllTotals(cmd.Context(), workers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d order(s)\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (defaults to config)")
	return cmd
}
