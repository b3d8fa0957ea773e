// Package gateway talks to the external card/UPI payment processor.
//
// Amounts cross this boundary in minor units (paise). Signature checks are
// local HMAC computations and never hit the network.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrNotConfigured = errors.New("payment gateway is not configured")

// Intent is what the client needs to open the gateway checkout.
type Intent struct {
	OrderID  string `json:"order_id"`
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type RefundResult struct {
	RefundID string
	Status   string
}

type Gateway interface {
	CreateIntent(ctx context.Context, receipt string, amount int64, currency string) (*Intent, error)
	VerifySignature(orderID, paymentRef, signature string) bool
	Refund(ctx context.Context, paymentRef, receipt string, amount int64) (*RefundResult, error)
}

// Sign produces the checkout signature for an order and the processor's
// payment reference: hex(HMAC-SHA256(secret, orderID + "|" + paymentRef)).
func Sign(secret, orderID, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(secret, orderID, paymentRef, signature string) bool {
	if secret == "" || orderID == "" || paymentRef == "" || signature == "" {
		return false
	}
	expected := Sign(secret, orderID, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}
