package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techthink/backoffice/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Operational reports",
	}
	cmd.AddCommand(newLowStockCmd())
	return cmd
}

func newLowStockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "low-stock",
		Short: "Show tracked products at or below their restock threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, svc, err := openService(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			products, err := svc.LowStockProducts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderLowStock(products))
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-number>",
		Short: "Show one order with its line items and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, svc, err := openService(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			o, err := svc.GetOrderByNumber(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderOrder(o))
			return nil
		},
	}
}
