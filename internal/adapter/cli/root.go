package cli

import (
	"context"
	"encoding/json"
	"io"

	"cardpay_billing/internal/infrastructure/config"
	"cardpay_billing/internal/infrastructure/container"
	"cardpay_billing/internal/infrastructure/logging"

	"github.com/spf13/cobra"
)

// Builder opens the application for one command run.
type Builder func(ctx context.Context, configPath string) (*container.Container, error)

func defaultBuilder(ctx context.Context, configPath string) (*container.Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return container.New(ctx, cfg, logging.NewLogger(cfg.Debug))
}

// NewRootCmd returns billingctl. A nil builder connects with the loaded
// configuration.
func NewRootCmd(build Builder) *cobra.Command {
	if build == nil {
		build = defaultBuilder
	}

	var configPath string

	cmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Operate card payments",
		Long:          "billingctl creates payment links, inspects payments and finishes reconciliation for charges the gateway captured but the order never recorded.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to CONFIG_FILE)")

	open := func(cmd *cobra.Command) (*container.Container, error) {
		return build(cmd.Context(), configPath)
	}

	cmd.AddCommand(newLinkCmd(open))
	cmd.AddCommand(newPaymentCmd(open))
	cmd.AddCommand(newReconcileCmd(open))
	return cmd
}

func Execute() error {
	return NewRootCmd(nil).ExecuteContext(context.Background())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
