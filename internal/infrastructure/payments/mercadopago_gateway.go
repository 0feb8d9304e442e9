package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"
)

const mercadoPagoCardTokensURL = "https://api.mercadopago.com/v1/card_tokens"

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMissingMercadoPagoPublicKey = errors.New("missing MERCADOPAGO_PUBLIC_KEY")
var ErrMissingMercadoPagoCurrency = errors.New("missing MERCADOPAGO_CURRENCY")

type MercadoPagoConfig struct {
	AccessToken string
	PublicKey   string
	PayerEmail  string
	// Currency is the account currency; payments are created in it only.
	Currency string
	// Timeout bounds one AuthorizeAndCapture call, tokenization included.
	Timeout time.Duration
	// CardTokensURL overrides the card tokenization endpoint.
	CardTokensURL string
}

// MercadoPagoGateway charges cards through Mercado Pago: the card is
// tokenized first, then a payment is created with the token.
type MercadoPagoGateway struct {
	cfg        MercadoPagoConfig
	client     payment.Client
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(cfg MercadoPagoConfig, httpClient *http.Client, logger *zap.SugaredLogger) (*MercadoPagoGateway, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.AccessToken == "" {
		logger.Errorf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}
	if cfg.PublicKey == "" {
		logger.Errorf("[payment][gateway] missing MERCADOPAGO_PUBLIC_KEY")
		return nil, ErrMissingMercadoPagoPublicKey
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if cfg.Currency == "" {
		logger.Errorf("[payment][gateway] missing MERCADOPAGO_CURRENCY")
		return nil, ErrMissingMercadoPagoCurrency
	}
	if cfg.CardTokensURL == "" {
		cfg.CardTokensURL = mercadoPagoCardTokensURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	sdkCfg, err := config.New(cfg.AccessToken, config.WithHTTPClient(httpClient))
	if err != nil {
		logger.Errorf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	logger.Infof("[payment][gateway] Mercado Pago client initialized currency=%s", cfg.Currency)

	return &MercadoPagoGateway{
		cfg:        cfg,
		client:     payment.NewClient(sdkCfg),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (g *MercadoPagoGateway) AuthorizeAndCapture(ctx context.Context, req entities.GatewayChargeRequest) entities.ChargeOutcome {
	if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != g.cfg.Currency {
		return entities.ChargeOutcome{
			Result: entities.OutcomeGatewayError,
			Detail: fmt.Sprintf("currency %s not supported by account currency %s", currency, g.cfg.Currency),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	methodID := cardBrand(req.Card.Number)
	if methodID == "" {
		return entities.ChargeOutcome{Result: entities.OutcomeDeclined, Detail: "unsupported card brand"}
	}

	token, outcome, ok := g.tokenize(ctx, req.Card)
	if !ok {
		return outcome
	}

	requestPayload, err := json.Marshal(map[string]any{
		"transaction_amount": req.Amount.InexactFloat64(),
		"token":              token,
		"description":        req.Description,
		"installments":       1,
		"payment_method_id":  methodID,
		"external_reference": req.InvoiceNumber,
		"payer": map[string]any{
			"email": g.cfg.PayerEmail,
		},
	})
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("marshal payment: %v", err)}
	}

	var paymentReq payment.Request
	if err := json.Unmarshal(requestPayload, &paymentReq); err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("payload unmarshal failed: %v", err)}
	}

	g.logger.Debugf("[payment][gateway] create start external_reference=%s amount=%s", req.InvoiceNumber, req.Amount.StringFixed(2))
	resp, err := g.client.Create(ctx, paymentReq)
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("sdk create failed: %v", err)}
	}
	if resp == nil {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: "sdk create returned no payment"}
	}

	return classifyMercadoPago(fmt.Sprintf("%d", resp.ID), resp.Status, resp.StatusDetail, resp.CurrencyID, g.cfg.Currency)
}

// classifyMercadoPago maps a created payment to an outcome. Payments that
// may still capture money (pending, in_process, authorized) are pending, as
// is an approval in a currency other than the account's: neither may be
// retried.
func classifyMercadoPago(id, status, statusDetail, currencyID, wantCurrency string) entities.ChargeOutcome {
	detail := fmt.Sprintf("provider_payment_id=%s provider_status=%s provider_status_detail=%s currency=%s",
		id, status, statusDetail, currencyID)
	switch status {
	case "approved":
		if !strings.EqualFold(currencyID, wantCurrency) {
			return entities.ChargeOutcome{Result: entities.OutcomePending, TransactionID: id,
				Detail: detail + " expected_currency=" + wantCurrency}
		}
		return entities.ChargeOutcome{Result: entities.OutcomeOk, TransactionID: id, Detail: detail}
	case "rejected", "cancelled":
		return entities.ChargeOutcome{Result: entities.OutcomeDeclined, TransactionID: id, Detail: detail}
	case "pending", "in_process", "authorized":
		return entities.ChargeOutcome{Result: entities.OutcomePending, TransactionID: id, Detail: detail}
	default:
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, TransactionID: id, Detail: detail}
	}
}

type mpCardTokenResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Cause   []struct {
		Code        any    `json:"code"`
		Description string `json:"description"`
	} `json:"cause"`
}

func (g *MercadoPagoGateway) tokenize(ctx context.Context, card entities.GatewayCard) (string, entities.ChargeOutcome, bool) {
	month, year, ok := splitExpiration(card.Expiration)
	if !ok {
		return "", entities.ChargeOutcome{Result: entities.OutcomeDeclined, Detail: "invalid expiration date"}, false
	}

	body, err := json.Marshal(map[string]any{
		"card_number":      card.Number,
		"expiration_month": month,
		"expiration_year":  year,
		"security_code":    card.CVV,
	})
	if err != nil {
		return "", entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("marshal card token: %v", err)}, false
	}

	endpoint := g.cfg.CardTokensURL + "?public_key=" + url.QueryEscape(g.cfg.PublicKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("build card token request: %v", err)}, false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("card token request: %v", err)}, false
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var res mpCardTokenResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("card token decode: http=%d err=%v", resp.StatusCode, err)}, false
	}
	if (resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated) || res.ID == "" {
		detail := fmt.Sprintf("card token failed: http=%d message=%s", resp.StatusCode, res.Message)
		if len(res.Cause) > 0 {
			detail += fmt.Sprintf(" cause=%v %s", res.Cause[0].Code, res.Cause[0].Description)
		}
		return "", entities.ChargeOutcome{Result: entities.OutcomeDeclined, Detail: detail}, false
	}
	return res.ID, entities.ChargeOutcome{}, true
}

// cardBrand maps a card number prefix to a Mercado Pago payment_method_id.
func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	case len(number) >= 4:
		p2, _ := strconv.Atoi(number[:2])
		p4, _ := strconv.Atoi(number[:4])
		if (p2 >= 51 && p2 <= 55) || (p4 >= 2221 && p4 <= 2720) {
			return "master"
		}
	}
	return ""
}

// splitExpiration accepts MMYY, MM-YY, MM-YYYY and YYYY-MM.
func splitExpiration(exp string) (month, year int, ok bool) {
	var mm, yy string
	parts := strings.Split(exp, "-")
	switch {
	case len(parts) == 2 && len(parts[0]) == 4:
		yy, mm = parts[0], parts[1]
	case len(parts) == 2:
		mm, yy = parts[0], parts[1]
	case len(parts) == 1 && len(exp) == 4:
		mm, yy = exp[:2], exp[2:]
	default:
		return 0, 0, false
	}

	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, err = strconv.Atoi(yy)
	if err != nil {
		return 0, 0, false
	}
	switch len(yy) {
	case 2:
		year += 2000
	case 4:
	default:
		return 0, 0, false
	}
	return month, year, true
}
