package payments

import (
	"context"
	"testing"

	"cardpay_billing/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearMockEnv(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_MOCK", "")
	t.Setenv("MERCADOPAGO_MOCK", "")
}

func TestNewGateway(t *testing.T) {
	t.Run("env mock mode", func(t *testing.T) {
		clearMockEnv(t)
		t.Setenv("PAYMENT_GATEWAY_MOCK", "yes")
		g, err := NewGateway(Settings{Provider: ProviderAuthorizeNet}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MockGateway{}, g)
	})

	t.Run("legacy mercado pago mock env", func(t *testing.T) {
		clearMockEnv(t)
		t.Setenv("MERCADOPAGO_MOCK", "1")
		g, err := NewGateway(Settings{Provider: ProviderMercadoPago}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MockGateway{}, g)
	})

	t.Run("authorize.net default provider", func(t *testing.T) {
		clearMockEnv(t)
		g, err := NewGateway(Settings{AuthorizeNet: AuthorizeNetConfig{APILoginID: "l", TransactionKey: "k"}}, nil)
		require.NoError(t, err)
		assert.IsType(t, &AuthorizeNetGateway{}, g)
	})

	t.Run("missing credentials", func(t *testing.T) {
		clearMockEnv(t)
		g, err := NewGateway(Settings{Provider: ProviderAuthorizeNet}, nil)
		assert.ErrorIs(t, err, ErrMissingAuthorizeNetCredentials)
		assert.Nil(t, g)
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearMockEnv(t)
		_, err := NewGateway(Settings{Provider: "paypal"}, nil)
		assert.ErrorContains(t, err, "unknown payment gateway")
	})
}

func TestMockGateway(t *testing.T) {
	g := NewMockGateway(nil)

	ok := g.AuthorizeAndCapture(context.Background(), entities.GatewayChargeRequest{Card: entities.GatewayCard{Number: "4111111111111111"}})
	assert.True(t, ok.Succeeded())
	assert.NotEmpty(t, ok.TransactionID)

	declined := g.AuthorizeAndCapture(context.Background(), entities.GatewayChargeRequest{Card: entities.GatewayCard{Number: "4000000000000002"}})
	assert.Equal(t, entities.OutcomeDeclined, declined.Result)
}
