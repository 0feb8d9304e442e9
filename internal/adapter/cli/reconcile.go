package cli

import (
	"fmt"

	"cardpay_billing/internal/infrastructure/container"

	"github.com/spf13/cobra"
)

func newReconcileCmd(open func(*cobra.Command) (*container.Container, error)) *cobra.Command {
	var transactionID string

	cmd := &cobra.Command{
		Use:   "reconcile <payment-id>",
		Short: "Record a captured charge on the payment and its order",
		Long: "Marks the payment paid with the gateway transaction id and records it on the order. " +
			"Use it after a charge succeeded at the gateway but the order update failed, or once a " +
			"transaction held for review has been approved. Safe to repeat.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			p, err := c.PaymentUseCase.Reconcile(cmd.Context(), args[0], transactionID)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&transactionID, "transaction-id", "", "gateway transaction id (defaults to the one stored on the payment)")
	return cmd
}
