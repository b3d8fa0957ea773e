package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
)

// Sandbox is an in-process gateway for local runs and tests. It accepts
// every order and signs with the configured secret.
type Sandbox struct {
	keyID  string
	secret string
	log    *zap.Logger
}

func NewSandbox(keyID, secret string, log *zap.Logger) *Sandbox {
	return &Sandbox{
		keyID:  keyID,
		secret: secret,
		log:    log.With(zap.String("gateway", "sandbox")),
	}
}

func (s *Sandbox) CreateIntent(_ context.Context, receipt string, amount int64, currency string) (*Intent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("sandbox: amount must be positive, got %d", amount)
	}

	intent := &Intent{
		OrderID:  "order_" + randomHex(7),
		KeyID:    s.keyID,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	s.log.Debug("Created sandbox order", zap.String("order_id", intent.OrderID), zap.String("receipt", receipt))
	return intent, nil
}

func (s *Sandbox) VerifySignature(orderID, paymentRef, signature string) bool {
	return verify(s.secret, orderID, paymentRef, signature)
}

func (s *Sandbox) Refund(_ context.Context, paymentRef, receipt string, amount int64) (*RefundResult, error) {
	s.log.Debug("Sandbox refund",
		zap.String("payment_ref", paymentRef),
		zap.String("receipt", receipt),
		zap.Int64("amount", amount),
	)
	return &RefundResult{RefundID: "rfnd_" + randomHex(7), Status: "processed"}, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
