package cli

import (
	"fmt"
	"strconv"

	"cardpay_billing/internal/infrastructure/container"

	"github.com/spf13/cobra"
)

func newLinkCmd(open func(*cobra.Command) (*container.Container, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "link <order-id>",
		Short: "Create or reuse the payment link of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			link, err := c.PaymentUseCase.GetPaymentLink(cmd.Context(), orderID)
			if err != nil {
				return fmt.Errorf("payment link for order %d: %w", orderID, err)
			}
			return writeJSON(cmd.OutOrStdout(), link)
		},
	}
}
