package memstore

import (
	"context"
	"fmt"
	"slices"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
)

type paymentRepo struct {
	s *Store
}

func (r *paymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.payments {
		if existing.ID == p.ID || existing.TransactionID == p.TransactionID {
			return fmt.Errorf("create payment %s: %w", p.TransactionID, errUnique)
		}
		if existing.BookingID == p.BookingID && existing.Status.IsActive() && p.Status.IsActive() {
			return fmt.Errorf("second active payment for booking %s: %w", p.BookingID, errUnique)
		}
	}
	put(ctx, r.s, r.s.payments, p.ID, *p)
	return nil
}

func (r *paymentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *paymentRepo) FindActiveByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.payments {
		if p.BookingID == bookingID && p.Status.IsActive() {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *paymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Payment
	for _, p := range r.s.payments {
		if p.BookingID == bookingID {
			out = append(out, ptr(p))
		}
	}
	slices.SortFunc(out, func(a, b *entity.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *paymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[p.ID]; !ok {
		return fmt.Errorf("payment %s not found", p.ID)
	}
	put(ctx, r.s, r.s.payments, p.ID, *p)
	return nil
}

type refundRepo struct {
	s *Store
}

func (r *refundRepo) Create(ctx context.Context, rf *entity.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.refunds[rf.PaymentID]; ok {
		return fmt.Errorf("refund for payment %s: %w", rf.PaymentID, errUnique)
	}
	put(ctx, r.s, r.s.refunds, rf.PaymentID, *rf)
	return nil
}

func (r *refundRepo) FindByPaymentID(_ context.Context, paymentID uuid.UUID) (*entity.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rf, ok := r.s.refunds[paymentID]
	if !ok {
		return nil, nil
	}
	return &rf, nil
}

func (r *refundRepo) Update(ctx context.Context, rf *entity.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.refunds[rf.PaymentID]; !ok {
		return fmt.Errorf("refund %s not found", rf.ID)
	}
	put(ctx, r.s, r.s.refunds, rf.PaymentID, *rf)
	return nil
}
