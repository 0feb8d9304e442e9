package interfaces

import (
	"context"
	"errors"
	"time"

	"cardpay_billing/internal/domain/entities"
)

var (
	// ErrPaymentAlreadyPaid is returned by conditional writes that found the
	// payment already paid (by a different transaction).
	ErrPaymentAlreadyPaid = errors.New("payment already paid")
	// ErrChargeLocked is returned when another charge attempt holds the lease.
	ErrChargeLocked = errors.New("payment charge locked")
	// ErrPaymentNotFound is returned by conditional writes on a missing id.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentPending is returned by AcquireChargeLock when the payment
	// carries a transaction held for review.
	ErrPaymentPending = errors.New("payment has a pending transaction")
)

// IPaymentRepository abstracts persistence for Payment.
//
// Lookups return a zero Payment (ID == "") when nothing matches.
// Create allocates ID, Hash and CreatedAt when they are empty.
//
// The charge lock is a lease owned by one charge attempt. AcquireChargeLock
// succeeds when the lease is free, expired or already held by owner (which
// extends it), and the payment is neither paid nor pending. ReleaseChargeLock only drops a lease still held by owner.
type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByHash(ctx context.Context, hash string) (entities.Payment, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]entities.Payment, error)
	AcquireChargeLock(ctx context.Context, id, owner string, until time.Time) error
	ReleaseChargeLock(ctx context.Context, id, owner string) error
	MarkPaid(ctx context.Context, id string, transactionID string, paidAt time.Time) (entities.Payment, error)
	MarkPending(ctx context.Context, id string, transactionID string) error
}
