package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	authorizeNetSandboxURL    = "https://apitest.authorize.net/xml/v1/request.api"
	authorizeNetProductionURL = "https://api.authorize.net/xml/v1/request.api"

	authCaptureTransaction = "authCaptureTransaction"
	refPrefix              = "ref"
	defaultGatewayTimeout  = 30 * time.Second
)

var ErrMissingAuthorizeNetCredentials = errors.New("missing AUTHORIZE_NET_API_LOGIN_ID or AUTHORIZE_NET_TRANSACTION_KEY")

type AuthorizeNetConfig struct {
	APILoginID     string
	TransactionKey string
	Production     bool
	// Endpoint overrides the sandbox/production URL.
	Endpoint string
	Timeout  time.Duration
}

// AuthorizeNetGateway submits authCaptureTransaction requests to the
// Authorize.Net JSON API.
type AuthorizeNetGateway struct {
	cfg        AuthorizeNetConfig
	refs       *ReferenceEncoder
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var _ interfaces.IPaymentGateway = (*AuthorizeNetGateway)(nil)

func NewAuthorizeNetGateway(cfg AuthorizeNetConfig, refs *ReferenceEncoder, logger *zap.SugaredLogger) (*AuthorizeNetGateway, error) {
	if strings.TrimSpace(cfg.APILoginID) == "" || strings.TrimSpace(cfg.TransactionKey) == "" {
		return nil, ErrMissingAuthorizeNetCredentials
	}
	if refs == nil {
		var err error
		if refs, err = NewReferenceEncoder(""); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	g := &AuthorizeNetGateway{
		cfg:        cfg,
		refs:       refs,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	logger.Infof("[payment][gateway] Authorize.Net client initialized environment=%s", g.environment())
	return g, nil
}

func (g *AuthorizeNetGateway) endpoint() string {
	if g.cfg.Endpoint != "" {
		return g.cfg.Endpoint
	}
	if g.cfg.Production {
		return authorizeNetProductionURL
	}
	return authorizeNetSandboxURL
}

func (g *AuthorizeNetGateway) environment() string {
	if g.cfg.Production {
		return "production"
	}
	return "sandbox"
}

type anetRequest struct {
	CreateTransactionRequest anetCreateTransaction `json:"createTransactionRequest"`
}

// Field order follows the Authorize.Net schema; the JSON API rejects
// out-of-order elements.
type anetCreateTransaction struct {
	MerchantAuthentication anetMerchantAuth       `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	TransactionRequest     anetTransactionRequest `json:"transactionRequest"`
}

type anetMerchantAuth struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type anetTransactionRequest struct {
	TransactionType string      `json:"transactionType"`
	Amount          string      `json:"amount"`
	CurrencyCode    string      `json:"currencyCode,omitempty"`
	Payment         anetPayment `json:"payment"`
	Order           anetOrder   `json:"order"`
}

type anetPayment struct {
	CreditCard anetCreditCard `json:"creditCard"`
}

type anetCreditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode"`
}

type anetOrder struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Description   string `json:"description,omitempty"`
}

type anetResponse struct {
	RefID               string                   `json:"refId"`
	TransactionResponse *anetTransactionResponse `json:"transactionResponse"`
	Messages            anetMessages             `json:"messages"`
}

type anetTransactionResponse struct {
	ResponseCode string `json:"responseCode"`
	AuthCode     string `json:"authCode"`
	TransID      string `json:"transId"`
	Messages     []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"messages"`
	Errors []struct {
		ErrorCode string `json:"errorCode"`
		ErrorText string `json:"errorText"`
	} `json:"errors"`
}

type anetMessages struct {
	ResultCode string `json:"resultCode"`
	Message    []struct {
		Code string `json:"code"`
		Text string `json:"text"`
	} `json:"message"`
}

func (g *AuthorizeNetGateway) AuthorizeAndCapture(ctx context.Context, req entities.GatewayChargeRequest) entities.ChargeOutcome {
	invoice, err := g.reference(req.InvoiceNumber)
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("encode invoice number: %v", err)}
	}
	refID, err := g.reference(strings.TrimPrefix(req.RefID, refPrefix))
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("encode ref id: %v", err)}
	}

	payload := anetRequest{CreateTransactionRequest: anetCreateTransaction{
		MerchantAuthentication: anetMerchantAuth{Name: g.cfg.APILoginID, TransactionKey: g.cfg.TransactionKey},
		RefID:                  refPrefix + refID,
		TransactionRequest: anetTransactionRequest{
			TransactionType: authCaptureTransaction,
			Amount:          req.Amount.StringFixed(2),
			CurrencyCode:    req.Currency,
			Payment: anetPayment{CreditCard: anetCreditCard{
				CardNumber:     req.Card.Number,
				ExpirationDate: req.Card.Expiration,
				CardCode:       req.Card.CVV,
			}},
			Order: anetOrder{InvoiceNumber: invoice, Description: truncate(req.Description, 255)},
		},
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("marshal request: %v", err)}
	}

	g.logger.Debugf("[payment][gateway] authorize.net create start invoice=%s amount=%s currency=%s", invoice, payload.CreateTransactionRequest.TransactionRequest.Amount, req.Currency)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("authorize.net request: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: fmt.Sprintf("authorize.net http=%d", resp.StatusCode)}
	}

	// The API prefixes its JSON with a UTF-8 byte order mark.
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(raw)) == 0 {
		return entities.ChargeOutcome{Result: entities.OutcomeNoResponse, Detail: "empty response body"}
	}

	var out anetResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return entities.ChargeOutcome{Result: entities.OutcomeGatewayError, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	return classifyAuthorizeNet(out)
}

func classifyAuthorizeNet(out anetResponse) entities.ChargeOutcome {
	tr := out.TransactionResponse

	if strings.EqualFold(out.Messages.ResultCode, "Ok") && tr != nil && tr.ResponseCode == "1" && len(tr.Messages) > 0 {
		return entities.ChargeOutcome{
			Result:        entities.OutcomeOk,
			TransactionID: tr.TransID,
			Detail:        fmt.Sprintf("response_code=%s auth_code=%s message_code=%s description=%s", tr.ResponseCode, tr.AuthCode, tr.Messages[0].Code, tr.Messages[0].Description),
		}
	}

	// responseCode 4: the transaction exists and is held for review.
	if tr != nil && tr.ResponseCode == "4" {
		detail := "response_code=4 held for review"
		if len(tr.Messages) > 0 {
			detail += fmt.Sprintf(" message_code=%s description=%s", tr.Messages[0].Code, tr.Messages[0].Description)
		}
		return entities.ChargeOutcome{Result: entities.OutcomePending, TransactionID: tr.TransID, Detail: detail}
	}

	result := entities.OutcomeGatewayError
	if tr != nil && tr.ResponseCode == "2" {
		result = entities.OutcomeDeclined
	}

	detail := "transaction failed"
	switch {
	case tr != nil && len(tr.Errors) > 0:
		detail = fmt.Sprintf("error_code=%s error_message=%s", tr.Errors[0].ErrorCode, tr.Errors[0].ErrorText)
	case len(out.Messages.Message) > 0:
		detail = fmt.Sprintf("error_code=%s error_message=%s", out.Messages.Message[0].Code, out.Messages.Message[0].Text)
	}

	outcome := entities.ChargeOutcome{Result: result, Detail: detail}
	if tr != nil {
		outcome.TransactionID = tr.TransID
	}
	return outcome
}

func (g *AuthorizeNetGateway) reference(id string) (string, error) {
	return g.refs.Encode(id)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
