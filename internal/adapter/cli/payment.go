package cli

import (
	"fmt"

	"cardpay_billing/internal/infrastructure/container"

	"github.com/spf13/cobra"
)

func newPaymentCmd(open func(*cobra.Command) (*container.Container, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "payment <payment-hash>",
		Short: "Show a payment by its hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			p, err := c.PaymentUseCase.GetByHash(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("payment lookup: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}
