package id

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// PaymentKeyLen is the length of a loan payment key.
const PaymentKeyLen = 12

const paymentKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var alphabetSize = big.NewInt(int64(len(paymentKeyAlphabet)))

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewPaymentKey returns a 12-char token drawn uniformly from [A-Z0-9]
// using crypto/rand. No uniqueness is implied; callers that need it must check.
func NewPaymentKey() (string, error) {
	out := make([]byte, PaymentKeyLen)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		out[i] = paymentKeyAlphabet[n.Int64()]
	}
	return string(out), nil
}
