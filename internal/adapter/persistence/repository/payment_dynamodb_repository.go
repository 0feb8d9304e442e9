package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"cardpay_billing/internal/domain/entities"
	"cardpay_billing/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultPaymentsTableName = "card_payments"
	paymentsHashIndex        = "hash-index"
	paymentsOrderIDIndex     = "order_id-index"
)

// DynamoAPI is the subset of *dynamodb.Client the payment repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type paymentItem struct {
	ID            string `dynamodbav:"id"`
	OrderID       int64  `dynamodbav:"order_id"`
	Hash          string `dynamodbav:"hash"`
	Amount        string `dynamodbav:"amount"`
	Currency      string `dynamodbav:"currency"`
	PayAmount     string `dynamodbav:"pay_amount"`
	PayCurrency   string `dynamodbav:"pay_currency"`
	Paid          bool   `dynamodbav:"paid"`
	PaidAt        string `dynamodbav:"paid_at,omitempty"`
	TransactionID string `dynamodbav:"transaction_id,omitempty"`
	PendingTxID   string `dynamodbav:"pending_transaction_id,omitempty"`
	LockUntil     int64  `dynamodbav:"lock_until,omitempty"`
	LockOwner     string `dynamodbav:"lock_owner,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
}

// PaymentDynamoRepository persists Payment entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: hash-index (PK: hash)
//   - GSI: order_id-index (PK: order_id, number)
//
// The charge lock is a lock_until (unix millis) + lock_owner pair written
// with conditional updates; the paid flag only flips through a conditional
// update.

type PaymentDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
	hashes    *HashGenerator
	now       func() time.Time
}

var _ interfaces.IPaymentRepository = (*PaymentDynamoRepository)(nil)

// NewPaymentDynamoRepository falls back to PAYMENTS_TABLE when tableName is empty.
func NewPaymentDynamoRepository(ddb DynamoAPI, tableName string, hashes *HashGenerator) *PaymentDynamoRepository {
	if hashes == nil {
		hashes = NewHashGenerator("")
	}
	if tableName == "" {
		tableName = getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName)
	}
	return &PaymentDynamoRepository{
		ddb:       ddb,
		tableName: tableName,
		hashes:    hashes,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *PaymentDynamoRepository) Create(ctx context.Context, p entities.Payment) (entities.Payment, error) {
	p = prepareNew(p, r.hashes, r.now())
	av, err := attributevalue.MarshalMap(toPaymentItem(p))
	if err != nil {
		return entities.Payment{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Payment{}, errDuplicatePayment
		}
		return entities.Payment{}, err
	}
	return p, nil
}

func (r *PaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       paymentKey(id),
		// Charge decisions read the paid flag, so never serve a stale copy.
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Item) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

// GetByHash resolves the id through hash-index and re-reads the item by key;
// index reads are eventually consistent.
func (r *PaymentDynamoRepository) GetByHash(ctx context.Context, hash string) (entities.Payment, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsHashIndex),
		KeyConditionExpression: aws.String("#hash = :hash"),
		ExpressionAttributeNames: map[string]string{
			"#hash": "hash",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":hash": &types.AttributeValueMemberS{Value: hash},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if len(out.Items) == 0 {
		return entities.Payment{}, nil
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Payment{}, err
	}
	if it.ID == "" {
		return entities.Payment{}, nil
	}
	return r.GetByID(ctx, it.ID)
}

func (r *PaymentDynamoRepository) ListByOrderID(ctx context.Context, orderID int64) ([]entities.Payment, error) {
	var (
		items    []entities.Payment
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(paymentsOrderIDIndex),
			KeyConditionExpression: aws.String("order_id = :oid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":oid": &types.AttributeValueMemberN{Value: strconv.FormatInt(orderID, 10)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}

		for _, raw := range out.Items {
			var it paymentItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			items = append(items, fromPaymentItem(it))
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (r *PaymentDynamoRepository) AcquireChargeLock(ctx context.Context, id, owner string, until time.Time) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 paymentKey(id),
		ConditionExpression: aws.String("attribute_exists(#id) AND #paid = :false AND attribute_not_exists(#pending) AND (attribute_not_exists(#lock) OR #lock < :now OR #owner = :owner)"),
		UpdateExpression:    aws.String("SET #lock = :until, #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#paid":    "paid",
			"#pending": "pending_transaction_id",
			"#lock":    "lock_until",
			"#owner":   "lock_owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":now":   &types.AttributeValueMemberN{Value: unixMillis(r.now())},
			":until": &types.AttributeValueMemberN{Value: unixMillis(until)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	var cfe *types.ConditionalCheckFailedException
	if !errors.As(err, &cfe) {
		return err
	}
	old, err := oldItem(cfe)
	if err != nil {
		return err
	}
	switch {
	case old.ID == "":
		return interfaces.ErrPaymentNotFound
	case old.Paid:
		return interfaces.ErrPaymentAlreadyPaid
	case old.PendingTxID != "":
		return interfaces.ErrPaymentPending
	default:
		return interfaces.ErrChargeLocked
	}
}

// ReleaseChargeLock drops the lease only while owner still holds it; a lease
// taken over by another attempt is left alone.
func (r *PaymentDynamoRepository) ReleaseChargeLock(ctx context.Context, id, owner string) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 paymentKey(id),
		ConditionExpression: aws.String("attribute_exists(#id) AND #owner = :owner"),
		UpdateExpression:    aws.String("REMOVE #lock, #owner"),
		ExpressionAttributeNames: map[string]string{
			"#id":    "id",
			"#lock":  "lock_until",
			"#owner": "lock_owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return nil
		}
		return err
	}
	return nil
}

// MarkPaid flips the paid flag once. Repeating it with the same transaction
// id returns the stored payment; a different transaction id is rejected.
func (r *PaymentDynamoRepository) MarkPaid(ctx context.Context, id string, transactionID string, paidAt time.Time) (entities.Payment, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 paymentKey(id),
		ConditionExpression: aws.String("attribute_exists(#id) AND (#paid = :false OR #tx = :tx)"),
		UpdateExpression:    aws.String("SET #paid = :true, #tx = :tx, #paid_at = if_not_exists(#paid_at, :paid_at) REMOVE #lock, #owner, #pending"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#paid":    "paid",
			"#tx":      "transaction_id",
			"#paid_at": "paid_at",
			"#lock":    "lock_until",
			"#owner":   "lock_owner",
			"#pending": "pending_transaction_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":    &types.AttributeValueMemberBOOL{Value: true},
			":false":   &types.AttributeValueMemberBOOL{Value: false},
			":tx":      &types.AttributeValueMemberS{Value: transactionID},
			":paid_at": &types.AttributeValueMemberS{Value: paidAt.UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if !errors.As(err, &cfe) {
			return entities.Payment{}, err
		}
		old, uerr := oldItem(cfe)
		if uerr != nil {
			return entities.Payment{}, uerr
		}
		if old.ID == "" {
			return entities.Payment{}, interfaces.ErrPaymentNotFound
		}
		return entities.Payment{}, interfaces.ErrPaymentAlreadyPaid
	}

	var it paymentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Payment{}, err
	}
	return fromPaymentItem(it), nil
}

// MarkPending records a transaction the gateway holds for review.
func (r *PaymentDynamoRepository) MarkPending(ctx context.Context, id string, transactionID string) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 paymentKey(id),
		ConditionExpression: aws.String("attribute_exists(#id) AND #paid = :false"),
		UpdateExpression:    aws.String("SET #pending = :tx"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#paid":    "paid",
			"#pending": "pending_transaction_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":tx":    &types.AttributeValueMemberS{Value: transactionID},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	var cfe *types.ConditionalCheckFailedException
	if !errors.As(err, &cfe) {
		return err
	}
	old, err := oldItem(cfe)
	if err != nil {
		return err
	}
	if old.ID == "" {
		return interfaces.ErrPaymentNotFound
	}
	return interfaces.ErrPaymentAlreadyPaid
}

func paymentKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func oldItem(cfe *types.ConditionalCheckFailedException) (paymentItem, error) {
	var it paymentItem
	if len(cfe.Item) == 0 {
		return it, nil
	}
	err := attributevalue.UnmarshalMap(cfe.Item, &it)
	return it, err
}

func unixMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func toPaymentItem(p entities.Payment) paymentItem {
	it := paymentItem{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Hash:          p.Hash,
		Amount:        p.Amount.String(),
		Currency:      p.Currency,
		PayAmount:     p.Meta.PayAmount.String(),
		PayCurrency:   p.Meta.PayCurrency,
		Paid:          p.Paid,
		TransactionID: p.TransactionID,
		PendingTxID:   p.PendingTransactionID,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !p.PaidAt.IsZero() {
		it.PaidAt = p.PaidAt.UTC().Format(time.RFC3339Nano)
	}
	return it
}

func fromPaymentItem(it paymentItem) entities.Payment {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	var paidAt time.Time
	if it.PaidAt != "" {
		paidAt, _ = time.Parse(time.RFC3339Nano, it.PaidAt)
	}
	return entities.Payment{
		ID:       it.ID,
		OrderID:  it.OrderID,
		Hash:     it.Hash,
		Amount:   parseDecimal(it.Amount),
		Currency: it.Currency,
		Meta: entities.PaymentMeta{
			PayAmount:   parseDecimal(it.PayAmount),
			PayCurrency: it.PayCurrency,
		},
		Paid:                 it.Paid,
		PaidAt:               paidAt,
		TransactionID:        it.TransactionID,
		PendingTransactionID: it.PendingTxID,
		CreatedAt:            createdAt,
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
