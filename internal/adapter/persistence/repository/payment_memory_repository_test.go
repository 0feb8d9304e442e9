package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(orderID int64) entities.Payment {
	return entities.Payment{
		OrderID:  orderID,
		Amount:   decimal.RequireFromString("100.00"),
		Currency: "USD",
		Meta:     entities.PaymentMeta{PayAmount: decimal.RequireFromString("100.00"), PayCurrency: "USD"},
	}
}

func TestPaymentMemoryRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentMemoryRepository(NewHashGenerator("secret"))

	created, err := repo.Create(ctx, newTestPayment(42))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, created.Hash, 64)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.Paid)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Hash, byID.Hash)

	byHash, err := repo.GetByHash(ctx, created.Hash)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byHash.ID)

	missing, err := repo.GetByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing.ID)

	other, err := repo.Create(ctx, newTestPayment(42))
	require.NoError(t, err)
	assert.NotEqual(t, created.Hash, other.Hash)

	list, err := repo.ListByOrderID(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPaymentMemoryRepository_ChargeLock(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentMemoryRepository(nil)
	p, err := repo.Create(ctx, newTestPayment(1))
	require.NoError(t, err)

	until := time.Now().Add(time.Minute)
	require.NoError(t, repo.AcquireChargeLock(ctx, p.ID, "a", until))
	assert.ErrorIs(t, repo.AcquireChargeLock(ctx, p.ID, "b", until), interfaces.ErrChargeLocked)

	require.NoError(t, repo.ReleaseChargeLock(ctx, p.ID, "a"))
	require.NoError(t, repo.AcquireChargeLock(ctx, p.ID, "b", until))

	t.Run("expired lease can be taken over", func(t *testing.T) {
		q, err := repo.Create(ctx, newTestPayment(2))
		require.NoError(t, err)
		require.NoError(t, repo.AcquireChargeLock(ctx, q.ID, "a", time.Now().Add(-time.Second)))
		require.NoError(t, repo.AcquireChargeLock(ctx, q.ID, "b", until))
	})

	t.Run("owner extends its own lease", func(t *testing.T) {
		q, err := repo.Create(ctx, newTestPayment(3))
		require.NoError(t, err)
		require.NoError(t, repo.AcquireChargeLock(ctx, q.ID, "a", time.Now().Add(10*time.Millisecond)))
		require.NoError(t, repo.AcquireChargeLock(ctx, q.ID, "a", until))

		time.Sleep(20 * time.Millisecond)
		assert.ErrorIs(t, repo.AcquireChargeLock(ctx, q.ID, "b", until), interfaces.ErrChargeLocked)
	})

	t.Run("release by a stale owner keeps the current lease", func(t *testing.T) {
		q, err := repo.Create(ctx, newTestPayment(4))
		require.NoError(t, err)
		require.NoError(t, repo.AcquireChargeLock(ctx, q.ID, "stale", time.Now().Add(-time.Second)))
		require.NoError(t, repo.AcquireChargeLock(ctx, q.ID, "current", until))

		require.NoError(t, repo.ReleaseChargeLock(ctx, q.ID, "stale"))
		assert.ErrorIs(t, repo.AcquireChargeLock(ctx, q.ID, "third", until), interfaces.ErrChargeLocked)
	})

	t.Run("unknown payment", func(t *testing.T) {
		assert.ErrorIs(t, repo.AcquireChargeLock(ctx, "missing", "a", until), interfaces.ErrPaymentNotFound)
	})
}

func TestPaymentMemoryRepository_MarkPending(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentMemoryRepository(nil)
	p, err := repo.Create(ctx, newTestPayment(1))
	require.NoError(t, err)

	require.NoError(t, repo.MarkPending(ctx, p.ID, "tx-held"))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "tx-held", got.PendingTransactionID)
	assert.False(t, got.Paid)
	assert.ErrorIs(t, repo.AcquireChargeLock(ctx, p.ID, "a", time.Now().Add(time.Minute)), interfaces.ErrPaymentPending)

	paid, err := repo.MarkPaid(ctx, p.ID, "tx-held", time.Now())
	require.NoError(t, err)
	assert.Empty(t, paid.PendingTransactionID)

	assert.ErrorIs(t, repo.MarkPending(ctx, p.ID, "tx-other"), interfaces.ErrPaymentAlreadyPaid)
	assert.ErrorIs(t, repo.MarkPending(ctx, "missing", "tx"), interfaces.ErrPaymentNotFound)
}

func TestPaymentMemoryRepository_MarkPaid(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentMemoryRepository(nil)
	p, err := repo.Create(ctx, newTestPayment(1))
	require.NoError(t, err)

	paidAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	paid, err := repo.MarkPaid(ctx, p.ID, "tx-1", paidAt)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, "tx-1", paid.TransactionID)
	assert.Equal(t, paidAt, paid.PaidAt)

	again, err := repo.MarkPaid(ctx, p.ID, "tx-1", paidAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, paidAt, again.PaidAt)

	_, err = repo.MarkPaid(ctx, p.ID, "tx-2", paidAt)
	assert.ErrorIs(t, err, interfaces.ErrPaymentAlreadyPaid)

	assert.ErrorIs(t, repo.AcquireChargeLock(ctx, p.ID, "a", time.Now().Add(time.Minute)), interfaces.ErrPaymentAlreadyPaid)

	_, err = repo.MarkPaid(ctx, "missing", "tx-1", paidAt)
	assert.ErrorIs(t, err, interfaces.ErrPaymentNotFound)
}

func TestPaymentMemoryRepository_ConcurrentLockHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentMemoryRepository(nil)
	p, err := repo.Create(ctx, newTestPayment(1))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			if repo.AcquireChargeLock(ctx, p.ID, owner, time.Now().Add(time.Minute)) == nil {
				winners.Add(1)
			}
		}(fmt.Sprintf("attempt-%d", i))
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
