package memstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
)

// put writes v under k and logs how to restore the previous value.
func put[K comparable, V any](ctx context.Context, s *Store, m map[K]V, k K, v V) {
	prev, existed := m[k]
	m[k] = v
	s.record(ctx, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

type seatRepo struct {
	s *Store
}

func (r *seatRepo) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, seat := range seats {
		if _, ok := r.s.seats[seat.ID]; ok {
			return fmt.Errorf("create seat %s: %w", seat.ID, errUnique)
		}
		for _, existing := range r.s.seats {
			if existing.RunID == seat.RunID && existing.SeatNumber == seat.SeatNumber {
				return fmt.Errorf("create seat %d on run %s: %w", seat.SeatNumber, seat.RunID, errUnique)
			}
		}
	}
	for _, seat := range seats {
		put(ctx, r.s, r.s.seats, seat.ID, *seat)
	}
	return nil
}

func (r *seatRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seat, ok := r.s.seats[id]
	if !ok {
		return nil, nil
	}
	return &seat, nil
}

func (r *seatRepo) FindByRunID(_ context.Context, runID uuid.UUID) ([]*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var seats []*entity.Seat
	for _, seat := range r.s.seats {
		if seat.RunID == runID {
			seats = append(seats, ptr(seat))
		}
	}
	slices.SortFunc(seats, func(a, b *entity.Seat) int { return a.SeatNumber - b.SeatNumber })
	return seats, nil
}

func (r *seatRepo) Occupancy(_ context.Context, runID uuid.UUID) (*entity.Occupancy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	occ := entity.Occupancy{RunID: runID}
	for _, seat := range r.s.seats {
		if seat.RunID != runID {
			continue
		}
		occ.Total++
		if seat.IsReserved {
			occ.Reserved++
		}
	}
	occ.Available = occ.Total - occ.Reserved
	return &occ, nil
}

func (r *seatRepo) Reserve(ctx context.Context, seatID, holderID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seat, ok := r.s.seats[seatID]
	if !ok || seat.IsReserved {
		return false, nil
	}
	seat.IsReserved = true
	seat.ReservedBy = ptr(holderID)
	seat.ReservedAt = ptr(at)
	seat.UpdatedAt = at
	put(ctx, r.s, r.s.seats, seatID, seat)
	return true, nil
}

func (r *seatRepo) Release(ctx context.Context, seatID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seat, ok := r.s.seats[seatID]
	if !ok || !seat.IsReserved {
		return false, nil
	}
	seat.IsReserved = false
	seat.ReservedBy = nil
	seat.ReservedAt = nil
	seat.UpdatedAt = time.Now()
	put(ctx, r.s, r.s.seats, seatID, seat)
	return true, nil
}
