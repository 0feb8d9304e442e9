package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"
)

type memoryPayment struct {
	payment   entities.Payment
	lockOwner string
	lockUntil time.Time
}

// PaymentMemoryRepository keeps payments in process memory. It backs local
// runs (PAYMENT_STORE=memory) and tests; all writes are serialized.
type PaymentMemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*memoryPayment
	byHash  map[string]string
	byOrder map[int64][]string
	hashes  *HashGenerator
	now     func() time.Time
}

var _ interfaces.IPaymentRepository = (*PaymentMemoryRepository)(nil)

func NewPaymentMemoryRepository(hashes *HashGenerator) *PaymentMemoryRepository {
	if hashes == nil {
		hashes = NewHashGenerator("")
	}
	return &PaymentMemoryRepository{
		byID:    make(map[string]*memoryPayment),
		byHash:  make(map[string]string),
		byOrder: make(map[int64][]string),
		hashes:  hashes,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *PaymentMemoryRepository) Create(_ context.Context, p entities.Payment) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p = prepareNew(p, r.hashes, r.now())
	if _, exists := r.byID[p.ID]; exists {
		return entities.Payment{}, errDuplicatePayment
	}
	if _, exists := r.byHash[p.Hash]; exists {
		return entities.Payment{}, errDuplicatePayment
	}

	r.byID[p.ID] = &memoryPayment{payment: p}
	r.byHash[p.Hash] = p.ID
	r.byOrder[p.OrderID] = append(r.byOrder[p.OrderID], p.ID)
	return p, nil
}

func (r *PaymentMemoryRepository) GetByID(_ context.Context, id string) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mp, ok := r.byID[id]; ok {
		return mp.payment, nil
	}
	return entities.Payment{}, nil
}

func (r *PaymentMemoryRepository) GetByHash(_ context.Context, hash string) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[hash]
	if !ok {
		return entities.Payment{}, nil
	}
	return r.byID[id].payment, nil
}

func (r *PaymentMemoryRepository) ListByOrderID(_ context.Context, orderID int64) ([]entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byOrder[orderID]
	out := make([]entities.Payment, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].payment)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentMemoryRepository) AcquireChargeLock(_ context.Context, id, owner string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mp, ok := r.byID[id]
	if !ok {
		return interfaces.ErrPaymentNotFound
	}
	if mp.payment.Paid {
		return interfaces.ErrPaymentAlreadyPaid
	}
	if mp.payment.PendingTransactionID != "" {
		return interfaces.ErrPaymentPending
	}
	if mp.lockOwner != owner && mp.lockUntil.After(r.now()) {
		return interfaces.ErrChargeLocked
	}
	mp.lockOwner = owner
	mp.lockUntil = until
	return nil
}

func (r *PaymentMemoryRepository) ReleaseChargeLock(_ context.Context, id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mp, ok := r.byID[id]; ok && mp.lockOwner == owner {
		mp.lockOwner = ""
		mp.lockUntil = time.Time{}
	}
	return nil
}

func (r *PaymentMemoryRepository) MarkPaid(_ context.Context, id string, transactionID string, paidAt time.Time) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mp, ok := r.byID[id]
	if !ok {
		return entities.Payment{}, interfaces.ErrPaymentNotFound
	}
	if mp.payment.Paid {
		if mp.payment.TransactionID == transactionID {
			return mp.payment, nil
		}
		return entities.Payment{}, interfaces.ErrPaymentAlreadyPaid
	}

	mp.payment.Paid = true
	mp.payment.PaidAt = paidAt.UTC()
	mp.payment.TransactionID = transactionID
	mp.payment.PendingTransactionID = ""
	mp.lockOwner = ""
	mp.lockUntil = time.Time{}
	return mp.payment, nil
}

// MarkPending records a transaction the gateway holds for review.
func (r *PaymentMemoryRepository) MarkPending(_ context.Context, id string, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mp, ok := r.byID[id]
	if !ok {
		return interfaces.ErrPaymentNotFound
	}
	if mp.payment.Paid {
		return interfaces.ErrPaymentAlreadyPaid
	}
	mp.payment.PendingTransactionID = transactionID
	return nil
}
