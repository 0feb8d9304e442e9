package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cardpay_billing/internal/adapter/http/handlers/mocks"
	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func newPaymentRouter(h *PaymentHandler) *gin.Engine {
	r := gin.New()
	r.POST("/v1/orders/:order_id/payment-link", h.CreatePaymentLink)
	r.GET("/v1/payments", h.GetPayment)
	r.POST("/v1/payments/charge", h.Charge)
	r.POST("/v1/payments/:payment_hash/charge", h.Charge)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestPaymentHandler_CreatePaymentLink(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid order id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		req := httptest.NewRequest(http.MethodPost, "/v1/orders/abc/payment-link", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if body := decodeError(t, w); body["code"] != "INVALID_ORDER_ID" {
			t.Fatalf("unexpected body: %v", body)
		}
	})

	t.Run("order not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		uc.EXPECT().GetPaymentLink(gomock.Any(), int64(9)).Return(entities.PaymentLink{}, usecase.ErrOrderNotFound)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders/9/payment-link", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("not payable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		uc.EXPECT().GetPaymentLink(gomock.Any(), int64(3)).Return(entities.PaymentLink{Payable: false}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders/3/payment-link", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if strings.TrimSpace(w.Body.String()) != `{"payable":false}` {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		link := entities.PaymentLink{Payable: true, URL: "https://shop.example.com/pay?payment_hash=h1", PaymentHash: "h1", PaymentID: "p-1"}
		uc.EXPECT().GetPaymentLink(gomock.Any(), int64(42)).Return(link, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders/42/payment-link", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["payable"] != true || body["payment_hash"] != "h1" || body["payment_url"] != link.URL {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestPaymentHandler_GetPayment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		req := httptest.NewRequest(http.MethodGet, "/v1/payments", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("unknown hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		uc.EXPECT().GetByHash(gomock.Any(), "nope").Return(entities.Payment{}, usecase.ErrPaymentNotFound)

		req := httptest.NewRequest(http.MethodGet, "/v1/payments?payment_hash=nope", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		p := entities.Payment{
			ID:       "p-1",
			OrderID:  42,
			Hash:     "h1",
			Amount:   decimal.RequireFromString("19.9"),
			Currency: "EUR",
			Meta:     entities.PaymentMeta{PayAmount: decimal.RequireFromString("19.9"), PayCurrency: "EUR"},
		}
		uc.EXPECT().GetByHash(gomock.Any(), "h1").Return(p, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/payments?payment_hash=h1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["pay_amount"] != "19.90" || body["pay_currency"] != "EUR" || body["paid"] != false {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestPaymentHandler_Charge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	card := entities.CardInput{Number: "4111111111111111", Expiration: "12/30", CVV: "123"}
	cardJSON := `{"number":"4111111111111111","expiration":"12/30","cvv":"123"}`

	t.Run("missing hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/charge", bytes.NewBufferString(cardJSON))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/h1/charge", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("empty body reaches the usecase", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		uc.EXPECT().Charge(gomock.Any(), "h1", entities.CardInput{}).Return(entities.Payment{}, usecase.ErrMissingCardNumber)

		req := httptest.NewRequest(http.MethodPost, "/v1/payments/h1/charge", nil)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if body := decodeError(t, w); body["code"] != "MISSING_CARD_NUMBER" {
			t.Fatalf("unexpected body: %v", body)
		}
	})

	t.Run("form post with query hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc, nil))

		paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		uc.EXPECT().Charge(gomock.Any(), "h1", card).Return(entities.Payment{
			OrderID:       42,
			Amount:        decimal.NewFromInt(10),
			Currency:      "USD",
			Meta:          entities.PaymentMeta{PayAmount: decimal.NewFromInt(10), PayCurrency: "USD"},
			Paid:          true,
			PaidAt:        paidAt,
			TransactionID: "60012345",
		}, nil)

		form := url.Values{"number": {card.Number}, "expiration": {card.Expiration}, "cvv": {card.CVV}}
		req := httptest.NewRequest(http.MethodPost, "/v1/payments/charge?payment_hash=h1", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["paid"] != true || body["transaction_id"] != "60012345" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
		if strings.Contains(w.Body.String(), card.Number) {
			t.Fatalf("card number leaked: %s", w.Body.String())
		}
	})

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "missing expiration", err: usecase.ErrMissingExpiration, status: http.StatusBadRequest, code: "MISSING_EXPIRATION"},
		{name: "missing cvv", err: usecase.ErrMissingCvv, status: http.StatusBadRequest, code: "MISSING_CVV"},
		{name: "unknown payment", err: usecase.ErrPaymentNotFound, status: http.StatusNotFound, code: "PAYMENT_NOT_FOUND"},
		{name: "already paid", err: usecase.ErrPaymentAlreadyPaid, status: http.StatusConflict, code: "ALREADY_PAID"},
		{name: "status not payable", err: usecase.ErrStatusNotPayable, status: http.StatusConflict, code: "STATUS_NOT_PAYABLE"},
		{name: "charge in progress", err: usecase.ErrChargeInProgress, status: http.StatusConflict, code: "CHARGE_IN_PROGRESS"},
		{name: "held for review", err: usecase.ErrPaymentPending, status: http.StatusConflict, code: "PAYMENT_PENDING"},
		{name: "transaction error", err: usecase.ErrTransaction, status: http.StatusPaymentRequired, code: "TRANSACTION_ERROR"},
		{
			name:   "reconciliation failure",
			err:    &usecase.ReconciliationError{PaymentID: "p-1", OrderID: 42, TransactionID: "600", Err: errors.New("db down")},
			status: http.StatusInternalServerError,
			code:   "TRANSACTION_OK_OTHER_PROBLEM",
		},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			uc := mocks.NewMockIPaymentUseCase(ctrl)
			r := newPaymentRouter(NewPaymentHandler(uc, nil))

			uc.EXPECT().Charge(gomock.Any(), "h1", card).Return(entities.Payment{}, tc.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/payments/h1/charge", bytes.NewBufferString(cardJSON))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			body := decodeError(t, w)
			if body["code"] != tc.code {
				t.Fatalf("expected code %s, got %v", tc.code, body)
			}
			if strings.Contains(body["message"], fmt.Sprint(tc.err)) && tc.status >= http.StatusInternalServerError {
				t.Fatalf("internal detail leaked: %v", body)
			}
		})
	}
}

func TestPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/ping", Ping)

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected ping response: %d %s", w.Code, w.Body.String())
	}
}
