package gateway

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"smart-bus/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	MaxRetries          int
	BaseDelay           time.Duration
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRetries:          2,
		BaseDelay:           200 * time.Millisecond,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Breaker guards a remote Gateway with retries and a circuit breaker.
// Signature checks pass straight through.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
	cfg  BreakerConfig
	log  *zap.Logger
}

func NewBreaker(next Gateway, cfg BreakerConfig, log *zap.Logger) *Breaker {
	b := &Breaker{
		next: next,
		cfg:  cfg,
		log:  log.With(zap.String("component", "gateway_breaker")),
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// a rejected request is the caller's problem, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || !retryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("Gateway breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.GatewayBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	metrics.GatewayBreakerState.WithLabelValues("payment-gateway").Set(0)

	return b
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func call[T any](ctx context.Context, b *Breaker, op string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, jitter(b.cfg.BaseDelay, attempt-1)); err != nil {
				return zero, err
			}
		}

		res, err := b.cb.Execute(func() (interface{}, error) {
			return fn()
		})
		if err == nil {
			return res.(T), nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || !retryable(err) {
			break
		}
		b.log.Warn("Gateway call failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return zero, lastErr
}

func (b *Breaker) CreateIntent(ctx context.Context, receipt string, amount int64, currency string) (*Intent, error) {
	return call(ctx, b, "create_intent", func() (*Intent, error) {
		return b.next.CreateIntent(ctx, receipt, amount, currency)
	})
}

func (b *Breaker) VerifySignature(orderID, paymentRef, signature string) bool {
	return b.next.VerifySignature(orderID, paymentRef, signature)
}

func (b *Breaker) Refund(ctx context.Context, paymentRef, receipt string, amount int64) (*RefundResult, error) {
	return call(ctx, b, "refund", func() (*RefundResult, error) {
		return b.next.Refund(ctx, paymentRef, receipt, amount)
	})
}

// jitter returns a random delay in [0, base*2^attempt).
func jitter(base time.Duration, attempt int) time.Duration {
	d := base << attempt
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
