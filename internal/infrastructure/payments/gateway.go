package payments

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cardpay_billing/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	ProviderAuthorizeNet = "authorizenet"
	ProviderMercadoPago  = "mercadopago"
)

type Settings struct {
	Provider      string
	Mock          bool
	ReferenceSalt string
	Timeout       time.Duration
	AuthorizeNet  AuthorizeNetConfig
	MercadoPago   MercadoPagoConfig
}

// NewGateway builds the configured card gateway. Mock mode wins over the
// provider selection.
func NewGateway(s Settings, logger *zap.SugaredLogger) (interfaces.IPaymentGateway, error) {
	if s.Mock || isPaymentGatewayMockEnabled() {
		return NewMockGateway(logger), nil
	}

	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderAuthorizeNet:
		refs, err := NewReferenceEncoder(s.ReferenceSalt)
		if err != nil {
			return nil, err
		}
		cfg := s.AuthorizeNet
		if cfg.Timeout == 0 {
			cfg.Timeout = s.Timeout
		}
		g, err := NewAuthorizeNetGateway(cfg, refs, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderMercadoPago:
		cfg := s.MercadoPago
		if cfg.Timeout == 0 {
			cfg.Timeout = s.Timeout
		}
		g, err := NewMercadoPagoGateway(cfg, nil, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", s.Provider)
	}
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
