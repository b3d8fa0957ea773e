package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSignatureRoundTrip(t *testing.T) {
	sb := NewSandbox("key", "secret", zap.NewNop())

	sig := Sign("secret", "order_1", "pay_1")
	assert.True(t, sb.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, sb.VerifySignature("order_1", "pay_2", sig), "signature is bound to the payment reference")
	assert.False(t, sb.VerifySignature("order_1", "pay_1", Sign("other", "order_1", "pay_1")))
	assert.False(t, sb.VerifySignature("order_1", "pay_1", ""))
}

func TestSandboxCreateIntent(t *testing.T) {
	sb := NewSandbox("key", "secret", zap.NewNop())

	intent, err := sb.CreateIntent(context.Background(), "TXN1", 25000, "INR")
	require.NoError(t, err)
	assert.Contains(t, intent.OrderID, "order_")
	assert.Equal(t, int64(25000), intent.Amount)
	assert.Equal(t, "key", intent.KeyID)

	_, err = sb.CreateIntent(context.Background(), "TXN1", 0, "INR")
	assert.Error(t, err)
}

func TestRazorpayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		var body orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(25000), body.Amount)

		_ = json.NewEncoder(w).Encode(orderResponse{
			ID: "order_abc", Amount: body.Amount, Currency: body.Currency, Receipt: body.Receipt, Status: "created",
		})
	}))
	defer srv.Close()

	c := NewRazorpay(srv.URL, "rzp_key", "rzp_secret", time.Second, zap.NewNop())
	intent, err := c.CreateIntent(context.Background(), "TXN1", 25000, "INR")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", intent.OrderID)
	assert.Equal(t, "rzp_key", intent.KeyID)
	assert.Equal(t, "TXN1", intent.Receipt)
}

func TestRazorpayRefundPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_9/refund", r.URL.Path)
		var body refundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(100), body.Amount)
		assert.Equal(t, "RFA1B2C3D4E5F6", body.Receipt)
		_ = json.NewEncoder(w).Encode(refundResponse{ID: "rfnd_1", Status: "processed"})
	}))
	defer srv.Close()

	c := NewRazorpay(srv.URL, "k", "s", time.Second, zap.NewNop())
	res, err := c.Refund(context.Background(), "pay_9", "RFA1B2C3D4E5F6", 100)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", res.RefundID)
}

func TestBreakerRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(orderResponse{ID: "order_ok", Amount: 100, Currency: "INR"})
	}))
	defer srv.Close()

	cfg := BreakerConfig{MaxRetries: 2, BaseDelay: time.Millisecond, ConsecutiveFailures: 5, OpenTimeout: time.Second}
	b := NewBreaker(NewRazorpay(srv.URL, "k", "s", time.Second, zap.NewNop()), cfg, zap.NewNop())

	intent, err := b.CreateIntent(context.Background(), "TXN1", 100, "INR")
	require.NoError(t, err)
	assert.Equal(t, "order_ok", intent.OrderID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBreakerRetriedRefundKeepsReceipt(t *testing.T) {
	var receipts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body refundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		receipts = append(receipts, body.Receipt)
		if len(receipts) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(refundResponse{ID: "rfnd_2", Status: "processed"})
	}))
	defer srv.Close()

	cfg := BreakerConfig{MaxRetries: 2, BaseDelay: time.Millisecond, ConsecutiveFailures: 5, OpenTimeout: time.Second}
	b := NewBreaker(NewRazorpay(srv.URL, "k", "s", time.Second, zap.NewNop()), cfg, zap.NewNop())

	res, err := b.Refund(context.Background(), "pay_2", "RF0011223344", 500)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_2", res.RefundID)
	assert.Equal(t, []string{"RF0011223344", "RF0011223344"}, receipts)
}

func TestBreakerDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := BreakerConfig{MaxRetries: 3, BaseDelay: time.Millisecond, ConsecutiveFailures: 1, OpenTimeout: time.Second}
	b := NewBreaker(NewRazorpay(srv.URL, "k", "s", time.Second, zap.NewNop()), cfg, zap.NewNop())

	_, err := b.CreateIntent(context.Background(), "TXN1", 100, "INR")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, gobreaker.StateClosed, b.State(), "client errors do not trip the breaker")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := BreakerConfig{MaxRetries: 0, BaseDelay: time.Millisecond, ConsecutiveFailures: 3, OpenTimeout: time.Minute}
	b := NewBreaker(NewRazorpay(srv.URL, "k", "s", time.Second, zap.NewNop()), cfg, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := b.Refund(context.Background(), "pay_1", "RF1", 100)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Refund(context.Background(), "pay_1", "RF1", 100)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load(), "open breaker short-circuits")
}
