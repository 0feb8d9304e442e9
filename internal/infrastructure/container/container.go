package container

import (
	"context"
	"fmt"

	"cardpay_billing/internal/adapter/persistence/repository"
	"cardpay_billing/internal/infrastructure/config"
	"cardpay_billing/internal/infrastructure/currency"
	"cardpay_billing/internal/infrastructure/database"
	"cardpay_billing/internal/infrastructure/logging"
	"cardpay_billing/internal/infrastructure/payments"
	"cardpay_billing/internal/usecase"
	"cardpay_billing/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// Container holds the wired application shared by the api and billingctl.
type Container struct {
	Config         config.Config
	Logger         *zap.SugaredLogger
	Payments       interfaces.IPaymentRepository
	PaymentUseCase usecase.IPaymentUseCase

	closers []func()
}

// New connects to Postgres for the order tables and wires everything else.
func New(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*Container, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MaxIdleTime)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	c, err := Build(ctx, cfg, logger, repository.NewOrderPostgresRepository(pool))
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.closers = append(c.closers, pool.Close)
	return c, nil
}

// Build wires the application around an existing order gateway.
func Build(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger, orders interfaces.IOrderGateway) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	paymentRepo, err := newPaymentRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := payments.NewGateway(payments.Settings{
		Provider:      cfg.Gateway.Provider,
		Mock:          cfg.Gateway.Mock,
		ReferenceSalt: cfg.Gateway.ReferenceSalt,
		Timeout:       cfg.Gateway.Timeout,
		AuthorizeNet: payments.AuthorizeNetConfig{
			APILoginID:     cfg.Gateway.AuthorizeNet.APILoginID,
			TransactionKey: cfg.Gateway.AuthorizeNet.TransactionKey,
			Production:     cfg.Gateway.AuthorizeNet.Environment == "production",
		},
		MercadoPago: payments.MercadoPagoConfig{
			AccessToken: cfg.Gateway.MercadoPago.AccessToken,
			PublicKey:   cfg.Gateway.MercadoPago.PublicKey,
			PayerEmail:  cfg.Gateway.MercadoPago.PayerEmail,
			Currency:    cfg.Gateway.MercadoPago.Currency,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	var converter interfaces.ICurrencyConverter
	if cfg.Payment.ConvertTo != "" {
		rates, err := cfg.Payment.RateTable()
		if err != nil {
			return nil, err
		}
		rtc, err := currency.NewRateTableConverter(cfg.Payment.RatesBase, rates)
		if err != nil {
			return nil, err
		}
		converter = rtc
	}

	events := logging.NewEventLogger(logger, cfg.Payment.LogInfoMessages)

	uc := usecase.NewPaymentUseCase(paymentRepo, orders, gateway, converter, events, usecase.PaymentSettings{
		AcceptedCurrencies: cfg.Payment.AcceptedCurrencies,
		ConvertTo:          cfg.Payment.ConvertTo,
		PaymentPageURL:     cfg.Payment.PaymentPageURL,
		ChargeLockTTL:      cfg.Payment.ChargeLockTTL,
	})

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Payments:       paymentRepo,
		PaymentUseCase: uc,
	}, nil
}

func newPaymentRepository(ctx context.Context, cfg config.Config) (interfaces.IPaymentRepository, error) {
	hashes := repository.NewHashGenerator(cfg.Payment.HashSecret)

	switch cfg.Store.Kind {
	case config.StoreMemory:
		return repository.NewPaymentMemoryRepository(hashes), nil
	case config.StoreDynamoDB, "":
		ddb, err := database.ConnectDynamoDB(ctx, database.DynamoDBOptions{
			Region:   cfg.Store.AWSRegion,
			Endpoint: cfg.Store.DynamoDBEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("connect dynamodb: %w", err)
		}
		return repository.NewPaymentDynamoRepository(ddb, cfg.Store.PaymentsTable, hashes), nil
	default:
		return nil, fmt.Errorf("unknown payment store %q", cfg.Store.Kind)
	}
}

// Close releases pools opened by New.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
