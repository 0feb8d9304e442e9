package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"github.com/google/uuid"
)

const (
	paymentHashParam     = "payment_hash"
	defaultChargeLockTTL = 2 * time.Minute
	minLockRenewInterval = time.Millisecond
)

// DefaultAcceptedCurrencies are the settlement currencies the card gateway
// takes without conversion.
var DefaultAcceptedCurrencies = []string{"USD", "CAD", "GBP", "DKK", "NOK", "PLN", "SEK", "EUR", "AUD", "NZD"}

// PaymentSettings is the part of the configuration the payment flow needs.
type PaymentSettings struct {
	AcceptedCurrencies []string
	// ConvertTo is the settlement currency used for orders whose currency
	// is not accepted. Empty disables conversion.
	ConvertTo      string
	PaymentPageURL string
	ChargeLockTTL  time.Duration
}

// IPaymentUseCase is the payment link + card charge flow.
type IPaymentUseCase interface {
	GetPaymentLink(ctx context.Context, orderID int64) (entities.PaymentLink, error)
	Charge(ctx context.Context, paymentHash string, card entities.CardInput) (entities.Payment, error)
	GetByHash(ctx context.Context, paymentHash string) (entities.Payment, error)
	Reconcile(ctx context.Context, paymentID, transactionID string) (entities.Payment, error)
}

type PaymentUseCase struct {
	repo      interfaces.IPaymentRepository
	orders    interfaces.IOrderGateway
	gateway   interfaces.IPaymentGateway
	converter interfaces.ICurrencyConverter
	events    interfaces.IEventLogger
	settings  PaymentSettings
	accepted  map[string]struct{}
	now       func() time.Time
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(
	repo interfaces.IPaymentRepository,
	orders interfaces.IOrderGateway,
	gateway interfaces.IPaymentGateway,
	converter interfaces.ICurrencyConverter,
	events interfaces.IEventLogger,
	settings PaymentSettings,
) *PaymentUseCase {
	if len(settings.AcceptedCurrencies) == 0 {
		settings.AcceptedCurrencies = DefaultAcceptedCurrencies
	}
	if settings.ChargeLockTTL <= 0 {
		settings.ChargeLockTTL = defaultChargeLockTTL
	}
	settings.ConvertTo = normalizeCurrency(settings.ConvertTo)

	accepted := make(map[string]struct{}, len(settings.AcceptedCurrencies))
	for _, c := range settings.AcceptedCurrencies {
		accepted[normalizeCurrency(c)] = struct{}{}
	}

	return &PaymentUseCase{
		repo:      repo,
		orders:    orders,
		gateway:   gateway,
		converter: converter,
		events:    events,
		settings:  settings,
		accepted:  accepted,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetPaymentLink returns a link to the payment page for the order.
//
// An order in a currency the gateway does not accept, with no conversion
// currency configured, yields PaymentLink{Payable: false} and no payment.
func (u *PaymentUseCase) GetPaymentLink(ctx context.Context, orderID int64) (entities.PaymentLink, error) {
	u.logf(interfaces.SeverityInfo, "[payment][usecase] payment-link start order_id=%d", orderID)
	if orderID <= 0 {
		return entities.PaymentLink{}, ErrInvalidOrderID
	}

	order, err := u.orders.GetOrder(ctx, orderID)
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] failed loading order order_id=%d err=%v", orderID, err)
		return entities.PaymentLink{}, err
	}
	if order.ID == 0 {
		return entities.PaymentLink{}, ErrOrderNotFound
	}
	if !order.Amount.IsPositive() {
		u.logf(interfaces.SeverityWarning, "[payment][usecase] order amount not positive order_id=%d amount=%s", orderID, order.Amount)
		return entities.PaymentLink{}, ErrInvalidOrderAmount
	}

	meta, payable, err := u.settlement(order)
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] currency conversion failed order_id=%d currency=%s err=%v", orderID, order.Currency, err)
		return entities.PaymentLink{}, err
	}
	if !payable {
		u.logf(interfaces.SeverityInfo, "[payment][usecase] order not payable order_id=%d currency=%s", orderID, order.Currency)
		return entities.PaymentLink{Payable: false}, nil
	}

	payment, err := u.createOrReuse(ctx, order, meta)
	if err != nil {
		return entities.PaymentLink{}, err
	}

	link, err := u.paymentURL(payment.Hash)
	if err != nil {
		return entities.PaymentLink{}, err
	}
	u.logf(interfaces.SeverityInfo, "[payment][usecase] payment-link success order_id=%d payment_id=%s pay_amount=%s pay_currency=%s",
		orderID, payment.ID, payment.Meta.PayAmount.StringFixed(2), payment.Meta.PayCurrency)

	return entities.PaymentLink{Payable: true, URL: link, PaymentHash: payment.Hash, PaymentID: payment.ID}, nil
}

func (u *PaymentUseCase) settlement(order entities.Order) (entities.PaymentMeta, bool, error) {
	currency := normalizeCurrency(order.Currency)
	if _, ok := u.accepted[currency]; ok {
		return entities.PaymentMeta{PayAmount: order.Amount, PayCurrency: currency}, true, nil
	}
	if u.settings.ConvertTo == "" {
		return entities.PaymentMeta{}, false, nil
	}
	if u.converter == nil {
		return entities.PaymentMeta{}, false, errors.New("currency converter not configured")
	}

	converted, err := u.converter.Convert(order.Amount, currency, u.settings.ConvertTo)
	if err != nil {
		return entities.PaymentMeta{}, false, err
	}
	return entities.PaymentMeta{PayAmount: converted, PayCurrency: u.settings.ConvertTo}, true, nil
}

// createOrReuse hands back the newest unpaid payment that still charges
// exactly what the order asks for, or creates a new one.
func (u *PaymentUseCase) createOrReuse(ctx context.Context, order entities.Order, meta entities.PaymentMeta) (entities.Payment, error) {
	existing, err := u.repo.ListByOrderID(ctx, order.ID)
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] failed listing payments order_id=%d err=%v", order.ID, err)
		return entities.Payment{}, err
	}

	var latest *entities.Payment
	for i := range existing {
		p := &existing[i]
		if p.Paid || !p.SameCharge(order, meta) {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest != nil {
		u.logf(interfaces.SeverityInfo, "[payment][usecase] reusing unpaid payment order_id=%d payment_id=%s", order.ID, latest.ID)
		return *latest, nil
	}

	created, err := u.repo.Create(ctx, entities.Payment{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: normalizeCurrency(order.Currency),
		Meta:     meta,
	})
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] payment repository create failed order_id=%d err=%v", order.ID, err)
		return entities.Payment{}, err
	}
	return created, nil
}

func (u *PaymentUseCase) paymentURL(hash string) (string, error) {
	page, err := url.Parse(u.settings.PaymentPageURL)
	if err != nil {
		return "", fmt.Errorf("parse payment page url: %w", err)
	}
	q := page.Query()
	q.Set(paymentHashParam, hash)
	page.RawQuery = q.Encode()
	return page.String(), nil
}

// Charge authorizes and captures the payment identified by paymentHash.
//
// Validation failures return before the gateway is called. A gateway
// failure of any kind is ErrTransaction; a charge the gateway holds for
// review is ErrPaymentPending. Once the gateway has captured the money,
// failures are *ReconciliationError and must not lead to a new charge
// attempt.
//
// The charge lock is owned by this call and renewed while the gateway call
// and the bookkeeping run, so a slow gateway cannot let the lease lapse.
func (u *PaymentUseCase) Charge(ctx context.Context, paymentHash string, card entities.CardInput) (entities.Payment, error) {
	paymentHash = strings.TrimSpace(paymentHash)
	if paymentHash == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}

	payment, err := u.repo.GetByHash(ctx, paymentHash)
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] failed loading payment by hash err=%v", err)
		return entities.Payment{}, err
	}
	if payment.ID == "" {
		u.logf(interfaces.SeverityWarning, "[payment][usecase] payment not found for hash")
		return entities.Payment{}, ErrPaymentNotFound
	}
	u.logf(interfaces.SeverityInfo, "[payment][usecase] charge start payment_id=%s order_id=%d", payment.ID, payment.OrderID)

	state, err := u.orderState(ctx, payment.OrderID)
	if err != nil {
		return entities.Payment{}, err
	}
	if err := ValidatePayment(payment, state, card); err != nil {
		u.logf(interfaces.SeverityInfo, "[payment][usecase] charge rejected payment_id=%s reason=%q", payment.ID, err.Error())
		return entities.Payment{}, err
	}

	gatewayCard := NormalizeCard(card)

	owner := uuid.NewString()
	if err := u.repo.AcquireChargeLock(ctx, payment.ID, owner, u.now().Add(u.settings.ChargeLockTTL)); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrChargeLocked):
			u.logf(interfaces.SeverityWarning, "[payment][usecase] charge already in progress payment_id=%s", payment.ID)
			return entities.Payment{}, ErrChargeInProgress
		case errors.Is(err, interfaces.ErrPaymentAlreadyPaid):
			return entities.Payment{}, ErrPaymentAlreadyPaid
		case errors.Is(err, interfaces.ErrPaymentPending):
			return entities.Payment{}, ErrPaymentPending
		case errors.Is(err, interfaces.ErrPaymentNotFound):
			return entities.Payment{}, ErrPaymentNotFound
		default:
			u.logf(interfaces.SeverityError, "[payment][usecase] failed acquiring charge lock payment_id=%s err=%v", payment.ID, err)
			return entities.Payment{}, err
		}
	}
	defer u.releaseChargeLock(ctx, payment.ID, owner)
	stopRenew := u.holdChargeLock(ctx, payment.ID, owner)
	defer stopRenew()

	outcome := u.gateway.AuthorizeAndCapture(ctx, entities.GatewayChargeRequest{
		InvoiceNumber: payment.ID,
		RefID:         "ref" + payment.ID,
		Description:   fmt.Sprintf("Order %d", payment.OrderID),
		Amount:        payment.Meta.PayAmount,
		Currency:      payment.Meta.PayCurrency,
		Card:          gatewayCard,
	})
	if err := u.classify(ctx, payment, outcome); err != nil {
		return entities.Payment{}, err
	}

	// The money is captured: finish the bookkeeping even if the caller went away.
	return u.reconcile(context.WithoutCancel(ctx), payment, outcome.TransactionID)
}

func (u *PaymentUseCase) orderState(ctx context.Context, orderID int64) (entities.OrderState, error) {
	order, err := u.orders.GetOrder(ctx, orderID)
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] failed loading order order_id=%d err=%v", orderID, err)
		return entities.OrderState{}, err
	}
	if order.ID == 0 {
		u.logf(interfaces.SeverityError, "[payment][usecase] order missing for payment order_id=%d", orderID)
		return entities.OrderState{}, ErrOrderNotFound
	}

	payable, err := u.orders.IsStatusPayable(ctx, order.StatusID)
	if err != nil {
		u.logf(interfaces.SeverityError, "[payment][usecase] failed loading order status order_id=%d status_id=%d err=%v", orderID, order.StatusID, err)
		return entities.OrderState{}, err
	}
	return entities.OrderState{Order: order, StatusPayable: payable}, nil
}

func (u *PaymentUseCase) classify(ctx context.Context, payment entities.Payment, outcome entities.ChargeOutcome) error {
	switch outcome.Result {
	case entities.OutcomeOk:
		u.logf(interfaces.SeverityInfo, "[payment][usecase] response success payment_id=%s transaction_id=%s detail=%q",
			payment.ID, outcome.TransactionID, outcome.Detail)
		return nil
	case entities.OutcomePending:
		u.logf(interfaces.SeverityError, "[payment][usecase] transaction held for review payment_id=%s order_id=%d transaction_id=%s detail=%q",
			payment.ID, payment.OrderID, outcome.TransactionID, outcome.Detail)
		if err := u.repo.MarkPending(context.WithoutCancel(ctx), payment.ID, outcome.TransactionID); err != nil {
			u.logf(interfaces.SeverityError, "[payment][usecase] failed recording pending transaction payment_id=%s transaction_id=%s err=%v",
				payment.ID, outcome.TransactionID, err)
		}
		return ErrPaymentPending
	case entities.OutcomeNoResponse:
		u.logf(interfaces.SeverityError, "[payment][usecase] no response returned payment_id=%s detail=%q", payment.ID, outcome.Detail)
		return ErrTransaction
	default:
		u.logf(interfaces.SeverityError, "[payment][usecase] transaction failed payment_id=%s result=%s detail=%q",
			payment.ID, outcome.Result, outcome.Detail)
		return ErrTransaction
	}
}

func (u *PaymentUseCase) reconcile(ctx context.Context, payment entities.Payment, transactionID string) (entities.Payment, error) {
	paid, err := u.repo.MarkPaid(ctx, payment.ID, transactionID, u.now())
	if err != nil {
		return entities.Payment{}, u.reconciliationFailed(payment, transactionID, err)
	}
	if err := u.orders.MarkPaid(ctx, payment.OrderID, payment.ID, payment.Amount); err != nil {
		return entities.Payment{}, u.reconciliationFailed(payment, transactionID, err)
	}

	u.logf(interfaces.SeverityInfo, "[payment][usecase] charge success payment_id=%s order_id=%d transaction_id=%s amount=%s currency=%s",
		payment.ID, payment.OrderID, transactionID, payment.Amount.String(), payment.Currency)
	return paid, nil
}

func (u *PaymentUseCase) reconciliationFailed(payment entities.Payment, transactionID string, err error) error {
	recErr := &ReconciliationError{PaymentID: payment.ID, OrderID: payment.OrderID, TransactionID: transactionID, Err: err}
	u.logf(interfaces.SeverityError, "[payment][usecase] processPaymentError %s", recErr.Error())
	return recErr
}

func (u *PaymentUseCase) releaseChargeLock(ctx context.Context, paymentID, owner string) {
	if err := u.repo.ReleaseChargeLock(context.WithoutCancel(ctx), paymentID, owner); err != nil {
		u.logf(interfaces.SeverityWarning, "[payment][usecase] failed releasing charge lock payment_id=%s err=%v", paymentID, err)
	}
}

// holdChargeLock extends the lease owned by owner every third of the TTL
// until the returned stop func is called. Stop waits for the renewer to exit.
func (u *PaymentUseCase) holdChargeLock(ctx context.Context, paymentID, owner string) func() {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	interval := u.settings.ChargeLockTTL / 3
	if interval < minLockRenewInterval {
		interval = minLockRenewInterval
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			err := u.repo.AcquireChargeLock(ctx, paymentID, owner, u.now().Add(u.settings.ChargeLockTTL))
			switch {
			case err == nil:
			case errors.Is(err, interfaces.ErrChargeLocked):
				u.logf(interfaces.SeverityError, "[payment][usecase] charge lock lost payment_id=%s", paymentID)
				return
			case errors.Is(err, interfaces.ErrPaymentAlreadyPaid), errors.Is(err, interfaces.ErrPaymentPending),
				errors.Is(err, interfaces.ErrPaymentNotFound):
				return
			case ctx.Err() != nil:
				return
			default:
				u.logf(interfaces.SeverityWarning, "[payment][usecase] failed renewing charge lock payment_id=%s err=%v", paymentID, err)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// GetByHash returns the payment behind a payment page link.
func (u *PaymentUseCase) GetByHash(ctx context.Context, paymentHash string) (entities.Payment, error) {
	paymentHash = strings.TrimSpace(paymentHash)
	if paymentHash == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	p, err := u.repo.GetByHash(ctx, paymentHash)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

// Reconcile replays the bookkeeping of a charge the gateway already
// captured. It never talks to the gateway and is safe to run repeatedly.
func (u *PaymentUseCase) Reconcile(ctx context.Context, paymentID, transactionID string) (entities.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	transactionID = strings.TrimSpace(transactionID)
	if paymentID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}

	p, err := u.repo.GetByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	if transactionID == "" {
		transactionID = p.TransactionID
	}
	if transactionID == "" {
		transactionID = p.PendingTransactionID
	}
	if transactionID == "" {
		return entities.Payment{}, ErrMissingTransaction
	}

	u.logf(interfaces.SeverityWarning, "[payment][usecase] manual reconcile payment_id=%s order_id=%d transaction_id=%s", p.ID, p.OrderID, transactionID)
	return u.reconcile(ctx, p, transactionID)
}

func (u *PaymentUseCase) logf(severity interfaces.Severity, format string, args ...any) {
	if u.events == nil {
		return
	}
	u.events.Log(severity, fmt.Sprintf(format, args...))
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
