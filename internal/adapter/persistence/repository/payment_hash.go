package repository

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cardpay_billing/internal/domain/entities"

	"github.com/google/uuid"
)

// HashGenerator mints the opaque payment hash used in payment links.
type HashGenerator struct {
	secret []byte
}

func NewHashGenerator(secret string) *HashGenerator {
	return &HashGenerator{secret: []byte(secret)}
}

func (g *HashGenerator) Generate(orderID int64) string {
	nonce := uuid.NewString()

	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(fmt.Sprintf("order:%d|nonce:%s", orderID, nonce)))

	return hex.EncodeToString(mac.Sum(nil))
}

// prepareNew fills the store-assigned fields of a payment about to be created.
func prepareNew(p entities.Payment, hashes *HashGenerator, now time.Time) entities.Payment {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Hash == "" {
		p.Hash = hashes.Generate(p.OrderID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.Paid = false
	p.PaidAt = time.Time{}
	p.TransactionID = ""
	p.PendingTransactionID = ""
	return p
}
