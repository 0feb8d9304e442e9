package payments

import (
	"context"
	"strings"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockGateway approves every charge without calling a processor, except
// card numbers ending in 0002 which are declined. Used for local runs.
type MockGateway struct {
	logger *zap.SugaredLogger
}

var _ interfaces.IPaymentGateway = (*MockGateway)(nil)

func NewMockGateway(logger *zap.SugaredLogger) *MockGateway {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger.Infof("[payment][gateway] mock mode enabled")
	return &MockGateway{logger: logger}
}

func (g *MockGateway) AuthorizeAndCapture(_ context.Context, req entities.GatewayChargeRequest) entities.ChargeOutcome {
	if strings.HasSuffix(req.Card.Number, "0002") {
		g.logger.Infof("[payment][gateway] mock decline invoice=%s", req.InvoiceNumber)
		return entities.ChargeOutcome{Result: entities.OutcomeDeclined, Detail: "mock decline"}
	}

	id := "mock-" + uuid.NewString()
	g.logger.Infof("[payment][gateway] mock create success invoice=%s transaction_id=%s", req.InvoiceNumber, id)
	return entities.ChargeOutcome{Result: entities.OutcomeOk, TransactionID: id, Detail: "mock approved"}
}
