package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned by MarkPaid when the order row is gone.
var ErrOrderNotFound = errors.New("order not found")

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OrderPostgresRepository reads and settles orders in the commerce
// platform's Postgres schema.
type OrderPostgresRepository struct{ q Querier }

var _ interfaces.IOrderGateway = (*OrderPostgresRepository)(nil)

func NewOrderPostgresRepository(q Querier) *OrderPostgresRepository {
	return &OrderPostgresRepository{q: q}
}

func (r *OrderPostgresRepository) GetOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	var (
		o      entities.Order
		amount string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, amount::text, currency, status_id, paid
		FROM commerce_orders WHERE id=$1
	`, orderID).Scan(&o.ID, &amount, &o.Currency, &o.StatusID, &o.Paid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.Order{}, nil
		}
		return entities.Order{}, fmt.Errorf("get order: %w", err)
	}

	o.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return entities.Order{}, fmt.Errorf("parse order amount %q: %w", amount, err)
	}
	o.Currency = strings.ToUpper(strings.TrimSpace(o.Currency))
	return o, nil
}

func (r *OrderPostgresRepository) IsStatusPayable(ctx context.Context, statusID int64) (bool, error) {
	var payable bool
	err := r.q.QueryRow(ctx, `
		SELECT canbepaid FROM commerce_order_statuses WHERE id=$1
	`, statusID).Scan(&payable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get order status: %w", err)
	}
	return payable, nil
}

// MarkPaid records the payment against the order and flags the order paid.
// The payment row is keyed by payment id, so replays are no-ops.
func (r *OrderPostgresRepository) MarkPaid(ctx context.Context, orderID int64, paymentID string, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		WITH recorded AS (
			INSERT INTO commerce_order_payments (order_id, payment_id, amount, paid_at)
			VALUES ($1, $2, $3::numeric, now())
			ON CONFLICT (payment_id) DO NOTHING
		)
		UPDATE commerce_orders SET paid=true WHERE id=$1
	`, orderID, paymentID, amount.String())
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
