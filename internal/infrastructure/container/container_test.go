package container

import (
	"context"
	"testing"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/infrastructure/config"
	mock_interfaces "cardpay_billing/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Gateway.Mock = true
	cfg.Store.Kind = config.StoreMemory
	cfg.Payment.PaymentPageURL = "https://shop.example.com/pay"
	cfg.Payment.HashSecret = "secret"
	cfg.Database.URL = "postgres://localhost/shop"
	return cfg
}

func TestBuild_WiresPaymentFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orders := mock_interfaces.NewMockIOrderGateway(ctrl)

	order := entities.Order{ID: 5, Amount: decimal.NewFromInt(20), Currency: "EUR", StatusID: 1}
	orders.EXPECT().GetOrder(gomock.Any(), int64(5)).Return(order, nil).Times(2)
	orders.EXPECT().IsStatusPayable(gomock.Any(), int64(1)).Return(true, nil)
	orders.EXPECT().MarkPaid(gomock.Any(), int64(5), gomock.Any(), gomock.Any()).Return(nil)

	c, err := Build(context.Background(), testConfig(), nil, orders)
	require.NoError(t, err)
	defer c.Close()

	link, err := c.PaymentUseCase.GetPaymentLink(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, link.Payable)

	paid, err := c.PaymentUseCase.Charge(context.Background(), link.PaymentHash, entities.CardInput{Number: "4111111111111111", Expiration: "12-30", CVV: "123"})
	require.NoError(t, err)
	assert.True(t, paid.Paid)
}

func TestBuild_ConvertToUsesRateTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orders := mock_interfaces.NewMockIOrderGateway(ctrl)

	cfg := testConfig()
	cfg.Payment.ConvertTo = "USD"
	cfg.Payment.Rates = map[string]string{"JPY": "150"}

	orders.EXPECT().GetOrder(gomock.Any(), int64(1)).Return(entities.Order{ID: 1, Amount: decimal.NewFromInt(1500), Currency: "JPY"}, nil)

	c, err := Build(context.Background(), cfg, nil, orders)
	require.NoError(t, err)

	link, err := c.PaymentUseCase.GetPaymentLink(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, link.Payable)

	p, err := c.Payments.GetByHash(context.Background(), link.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Meta.PayCurrency)
	assert.True(t, p.Meta.PayAmount.Equal(decimal.NewFromInt(10)))
}

func TestBuild_UnknownStore(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Kind = "redis"
	_, err := Build(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "unknown payment store")
}
