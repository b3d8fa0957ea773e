package usecase

import (
	"context"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/outbox"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentStateMachine moves one payment through
// pending -> completed -> refunded, or pending -> failed.
type PaymentStateMachine struct {
	payments repository.PaymentRepository
	refunds  repository.RefundRepository
	events   *outbox.Recorder
	currency string
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentStateMachine(payments repository.PaymentRepository, refunds repository.RefundRepository, events *outbox.Recorder, currency string, now func() time.Time, log *zap.Logger) *PaymentStateMachine {
	return &PaymentStateMachine{
		payments: payments,
		refunds:  refunds,
		events:   events,
		currency: currency,
		now:      now,
		log:      log.With(zap.String("machine", "payment")),
	}
}

// Initiate records intent to pay. A still-pending earlier attempt is
// failed first so the booking keeps a single active payment.
func (m *PaymentStateMachine) Initiate(ctx context.Context, b *entity.Booking, method entity.PaymentMethod, transactionID string, orderID *string) (*entity.Payment, error) {
	if b.Status != entity.BookingStatusPending {
		return nil, apperr.NotFound("pending booking", b.ID.String())
	}

	active, err := m.payments.FindActiveByBookingID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if active.Status != entity.PaymentStatusPending {
			return nil, apperr.Conflict("booking", b.ID.String(), "already has a completed payment")
		}
		if err := m.Fail(ctx, active); err != nil {
			return nil, err
		}
	}

	now := m.now()
	payment := &entity.Payment{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TransactionID:  transactionID,
		HolderID:       b.HolderID,
		BookingID:      b.ID,
		Amount:         b.FinalPrice,
		Currency:       m.currency,
		Method:         method,
		Status:         entity.PaymentStatusPending,
		GatewayOrderID: orderID,
	}
	if err := m.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	m.log.Info("Payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("transaction_id", payment.TransactionID),
		zap.String("booking_id", b.ID.String()),
		zap.String("method", string(method)),
	)
	return payment, m.record(ctx, payment, outbox.PaymentInitiated)
}

func (m *PaymentStateMachine) Complete(ctx context.Context, p *entity.Payment, reference string) error {
	if p.Status != entity.PaymentStatusPending {
		return m.illegal(p, "complete")
	}

	now := m.now()
	p.Status = entity.PaymentStatusCompleted
	p.GatewayReference = &reference
	p.CompletedAt = &now
	p.UpdatedAt = now
	if err := m.payments.Update(ctx, p); err != nil {
		return err
	}

	m.log.Info("Payment completed",
		zap.String("payment_id", p.ID.String()),
		zap.String("reference", reference),
	)
	return m.record(ctx, p, outbox.PaymentCompleted)
}

func (m *PaymentStateMachine) Fail(ctx context.Context, p *entity.Payment) error {
	if p.Status != entity.PaymentStatusPending {
		return m.illegal(p, "fail")
	}

	now := m.now()
	p.Status = entity.PaymentStatusFailed
	p.UpdatedAt = now
	if err := m.payments.Update(ctx, p); err != nil {
		return err
	}

	m.log.Info("Payment failed", zap.String("payment_id", p.ID.String()))
	return m.record(ctx, p, outbox.PaymentFailed)
}

// Refund writes the full-amount refund row and marks the payment refunded.
// Wallet refunds settle immediately; gateway refunds stay pending until
// the processor answers.
func (m *PaymentStateMachine) Refund(ctx context.Context, p *entity.Payment, reason string) (*entity.Refund, error) {
	if p.Status != entity.PaymentStatusCompleted {
		return nil, m.illegal(p, "refund")
	}

	now := m.now()
	refund := &entity.Refund{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		RefundRef:  utils.GenerateRefundRef(),
		PaymentID:  p.ID,
		Amount:     p.Amount,
		Reason:     reason,
		Status:     entity.RefundStatusPending,
	}
	if p.Method == entity.PaymentMethodWallet {
		refund.Status = entity.RefundStatusCompleted
		refund.CompletedAt = &now
	}
	if err := m.refunds.Create(ctx, refund); err != nil {
		return nil, err
	}

	p.Status = entity.PaymentStatusRefunded
	p.UpdatedAt = now
	if err := m.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	m.log.Info("Payment refunded",
		zap.String("payment_id", p.ID.String()),
		zap.String("refund_ref", refund.RefundRef),
		zap.String("amount", refund.Amount.StringFixed(2)),
	)
	return refund, m.record(ctx, p, outbox.PaymentRefunded)
}

func (m *PaymentStateMachine) illegal(p *entity.Payment, op string) error {
	switch p.Status {
	case entity.PaymentStatusFailed, entity.PaymentStatusRefunded:
		return apperr.AlreadyTerminal("payment", p.ID.String(), string(p.Status))
	}
	return apperr.Conflict("payment", p.ID.String(), "cannot "+op+" a "+string(p.Status)+" payment")
}

func (m *PaymentStateMachine) record(ctx context.Context, p *entity.Payment, eventType string) error {
	return m.events.Record(ctx, outbox.AggregatePayment, p.ID, eventType, map[string]any{
		"transaction_id": p.TransactionID,
		"booking_id":     p.BookingID,
		"holder_id":      p.HolderID,
		"amount":         p.Amount,
		"currency":       p.Currency,
		"method":         p.Method,
		"status":         p.Status,
	})
}
