package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	request "cardpay_billing/internal/adapter/http/dto/request"
	response "cardpay_billing/internal/adapter/http/dto/response"
	"cardpay_billing/internal/usecase"
	"cardpay_billing/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const paymentHashParam = "payment_hash"

var (
	errInvalidOrderID      = pkg.NewDomainErrorSimple("INVALID_ORDER_ID", "Invalid order id", http.StatusBadRequest)
	errInvalidChargeInput  = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	errMissingPaymentHash  = pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	errTransactionGeneric  = pkg.NewDomainErrorSimple("TRANSACTION_ERROR", "The transaction could not be completed", http.StatusPaymentRequired)
	errReconciliationAfter = pkg.NewDomainErrorSimple("TRANSACTION_OK_OTHER_PROBLEM", "The card was charged but the order could not be updated. Please contact the store", http.StatusInternalServerError)
)

// PaymentHandler serves the payment link and the payment page endpoints.
type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
	logger  *zap.SugaredLogger
}

func NewPaymentHandler(uc usecase.IPaymentUseCase, logger *zap.SugaredLogger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PaymentHandler{usecase: uc, logger: logger}
}

// CreatePaymentLink godoc
//
//	@Summary		Create payment link
//	@Description	Creates (or reuses) the payment for an order and returns the payment page URL. payable=false means the order currency cannot be charged.
//	@Tags			payments
//	@Produce		json
//	@Param			order_id	path		int	true	"Order id"
//	@Success		200			{object}	response.PaymentLinkResponse
//	@Failure		400			{object}	pkg.HTTPError
//	@Failure		404			{object}	pkg.HTTPError
//	@Failure		500			{object}	pkg.HTTPError
//	@Router			/orders/{order_id}/payment-link [post]
func (h *PaymentHandler) CreatePaymentLink(c *gin.Context) {
	orderID, err := strconv.ParseInt(strings.TrimSpace(c.Param("order_id")), 10, 64)
	if err != nil {
		c.JSON(errInvalidOrderID.HTTPStatus, errInvalidOrderID.ToHTTPError())
		return
	}

	link, err := h.usecase.GetPaymentLink(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Warnf("[payment][handler] link failed order_id=%d err=%v", orderID, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	h.logger.Debugf("[payment][handler] link order_id=%d payable=%t", orderID, link.Payable)

	c.JSON(http.StatusOK, response.FromPaymentLink(link))
}

// GetPayment godoc
//
//	@Summary		Get payment
//	@Description	Returns what the payment page needs to render the card form.
//	@Tags			payments
//	@Produce		json
//	@Param			payment_hash	query		string	true	"Payment hash"
//	@Success		200				{object}	response.PaymentResponse
//	@Failure		404				{object}	pkg.HTTPError
//	@Router			/payments [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	hash := paymentHash(c)
	if hash == "" {
		c.JSON(errMissingPaymentHash.HTTPStatus, errMissingPaymentHash.ToHTTPError())
		return
	}

	p, err := h.usecase.GetByHash(c.Request.Context(), hash)
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPayment(p))
}

// Charge godoc
//
//	@Summary		Charge card
//	@Description	Authorizes and captures the payment amount on the given card. The payment hash is read from the path or from the payment_hash query parameter.
//	@Tags			payments
//	@Accept			json
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			payment_hash	path		string					false	"Payment hash"
//	@Param			request			body		request.ChargeRequest	true	"Card"
//	@Success		200				{object}	response.PaymentResponse
//	@Failure		400				{object}	pkg.HTTPError
//	@Failure		402				{object}	pkg.HTTPError
//	@Failure		404				{object}	pkg.HTTPError
//	@Failure		409				{object}	pkg.HTTPError
//	@Failure		500				{object}	pkg.HTTPError
//	@Router			/payments/{payment_hash}/charge [post]
//	@Router			/payments/charge [post]
func (h *PaymentHandler) Charge(c *gin.Context) {
	hash := paymentHash(c)
	if hash == "" {
		c.JSON(errMissingPaymentHash.HTTPStatus, errMissingPaymentHash.ToHTTPError())
		return
	}

	var payload request.ChargeRequest
	if err := c.ShouldBind(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(errInvalidChargeInput.HTTPStatus, errInvalidChargeInput.ToHTTPError())
		return
	}

	p, err := h.usecase.Charge(c.Request.Context(), hash, payload.ToCardInput())
	if err != nil {
		appErr := mapPaymentError(err)
		h.logger.Infof("[payment][handler] charge rejected code=%s", appErr.Code)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPayment(p))
}

func paymentHash(c *gin.Context) string {
	if v := strings.TrimSpace(c.Param(paymentHashParam)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query(paymentHashParam))
}

func mapPaymentError(err error) *pkg.AppError {
	var missing *usecase.MissingFieldError
	switch {
	case errors.As(err, &missing):
		return mapMissingField(missing.Field)
	case errors.Is(err, usecase.ErrInvalidOrderID):
		return errInvalidOrderID
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvalidOrderAmount):
		return pkg.NewDomainErrorSimple("INVALID_ORDER_AMOUNT", "Order amount must be positive", http.StatusUnprocessableEntity)
	case errors.Is(err, usecase.ErrPaymentAlreadyPaid):
		return pkg.NewDomainErrorSimple("ALREADY_PAID", "This order has already been paid", http.StatusConflict)
	case errors.Is(err, usecase.ErrStatusNotPayable):
		return pkg.NewDomainErrorSimple("STATUS_NOT_PAYABLE", "The order status does not allow payment", http.StatusConflict)
	case errors.Is(err, usecase.ErrChargeInProgress):
		return pkg.NewDomainErrorSimple("CHARGE_IN_PROGRESS", "A payment attempt is already in progress", http.StatusConflict)
	case errors.Is(err, usecase.ErrPaymentPending):
		return pkg.NewDomainErrorSimple("PAYMENT_PENDING", "The payment is under review and cannot be charged again", http.StatusConflict)
	case errors.Is(err, usecase.ErrReconciliation):
		return errReconciliationAfter
	case errors.Is(err, usecase.ErrTransaction):
		return errTransactionGeneric
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func mapMissingField(field usecase.CardField) *pkg.AppError {
	switch field {
	case usecase.CardFieldNumber:
		return pkg.NewDomainErrorSimple("MISSING_CARD_NUMBER", "Card number is required", http.StatusBadRequest)
	case usecase.CardFieldExpiration:
		return pkg.NewDomainErrorSimple("MISSING_EXPIRATION", "Expiration date is required", http.StatusBadRequest)
	default:
		return pkg.NewDomainErrorSimple("MISSING_CVV", "Security code is required", http.StatusBadRequest)
	}
}
