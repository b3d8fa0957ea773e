package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusError is a non-2xx answer from the processor.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Razorpay is an HTTP client for the Razorpay orders and refunds API.
type Razorpay struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
	log       *zap.Logger
}

func NewRazorpay(baseURL, keyID, keySecret string, timeout time.Duration, log *zap.Logger) *Razorpay {
	return &Razorpay{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
		log:       log.With(zap.String("gateway", "razorpay")),
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type refundRequest struct {
	Amount  int64  `json:"amount"`
	Receipt string `json:"receipt"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Razorpay) CreateIntent(ctx context.Context, receipt string, amount int64, currency string) (*Intent, error) {
	var out orderResponse
	if err := c.post(ctx, "/v1/orders", orderRequest{Amount: amount, Currency: currency, Receipt: receipt}, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if out.ID == "" {
		return nil, errors.New("create order: empty order id")
	}

	return &Intent{
		OrderID:  out.ID,
		KeyID:    c.keyID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Receipt:  out.Receipt,
	}, nil
}

func (c *Razorpay) VerifySignature(orderID, paymentRef, signature string) bool {
	return verify(c.keySecret, orderID, paymentRef, signature)
}

// Refund sends the caller's receipt so that retried attempts can be matched
// up at the processor.
func (c *Razorpay) Refund(ctx context.Context, paymentRef, receipt string, amount int64) (*RefundResult, error) {
	var out refundResponse
	if err := c.post(ctx, "/v1/payments/"+paymentRef+"/refund", refundRequest{Amount: amount, Receipt: receipt}, &out); err != nil {
		return nil, fmt.Errorf("refund payment %s: %w", paymentRef, err)
	}
	return &RefundResult{RefundID: out.ID, Status: out.Status}, nil
}

func (c *Razorpay) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Gateway request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	c.log.Debug("Gateway response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return json.Unmarshal(raw, out)
}
