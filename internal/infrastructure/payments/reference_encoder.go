package payments

import (
	"hash/fnv"

	"github.com/speps/go-hashids/v2"
)

// Authorize.Net caps invoiceNumber and refId at 20 characters; payment ids
// are 36-character uuids.
const (
	maxReferenceLength   = 20
	referenceMinLength   = 10
	defaultReferenceSalt = "cardpay-billing"
)

// ReferenceEncoder maps a payment id to a short, stable processor reference.
// The same id always yields the same reference, so a retried submission
// carries the same invoice number and can be deduplicated by the processor.
type ReferenceEncoder struct {
	h *hashids.HashID
}

func NewReferenceEncoder(salt string) (*ReferenceEncoder, error) {
	if salt == "" {
		salt = defaultReferenceSalt
	}
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = referenceMinLength

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, err
	}
	return &ReferenceEncoder{h: h}, nil
}

func (e *ReferenceEncoder) Encode(id string) (string, error) {
	if len(id) <= maxReferenceLength-len(refPrefix) {
		return id, nil
	}
	f := fnv.New64a()
	_, _ = f.Write([]byte(id))
	// hashids only takes non-negative numbers.
	n := int64(f.Sum64() >> 1)
	return e.h.EncodeInt64([]int64{n})
}
