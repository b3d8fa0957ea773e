package memstore

import (
	"context"
	"fmt"
	"slices"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
)

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) Create(ctx context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.bookings {
		if existing.ID == b.ID || existing.BookingRef == b.BookingRef {
			return fmt.Errorf("create booking %s: %w", b.BookingRef, errUnique)
		}
		if existing.SeatID == b.SeatID && existing.Status.HoldsSeat() && b.Status.HoldsSeat() {
			return fmt.Errorf("create booking on seat %s: %w", b.SeatID, errUnique)
		}
	}
	put(ctx, r.s, r.s.bookings, b.ID, *b)
	return nil
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) FindLiveBySeatID(_ context.Context, seatID uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range r.s.bookings {
		if b.SeatID == seatID && b.Status.HoldsSeat() {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *bookingRepo) matching(filter entity.BookingFilter) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if b.HolderID != filter.HolderID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, ptr(b))
	}
	return out
}

func (r *bookingRepo) FindByHolder(_ context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.matching(filter)
	slices.SortFunc(out, func(a, b *entity.Booking) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *bookingRepo) CountByHolder(_ context.Context, filter entity.BookingFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return int64(len(r.matching(filter))), nil
}

func (r *bookingRepo) Update(ctx context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[b.ID]; !ok {
		return fmt.Errorf("booking %s not found", b.ID)
	}
	put(ctx, r.s, r.s.bookings, b.ID, *b)
	return nil
}
