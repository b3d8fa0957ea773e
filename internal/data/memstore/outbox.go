package memstore

import (
	"context"
	"slices"
	"time"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
)

type outboxRepo struct {
	s *Store
}

func (r *outboxRepo) Create(ctx context.Context, e *entity.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := e.ID
	r.s.outbox = append(r.s.outbox, *e)
	r.s.record(ctx, func() {
		r.s.outbox = slices.DeleteFunc(r.s.outbox, func(o entity.OutboxEvent) bool { return o.ID == id })
	})
	return nil
}

func (r *outboxRepo) FetchBatch(_ context.Context, limit int) ([]*entity.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.OutboxEvent
	for i := range r.s.outbox {
		if len(out) == limit {
			break
		}
		e := &r.s.outbox[i]
		if e.Status != entity.OutboxStatusNew {
			continue
		}
		e.Status = entity.OutboxStatusProcessing
		e.UpdatedAt = time.Now()
		out = append(out, ptr(*e))
	}
	return out, nil
}

func (r *outboxRepo) setStatus(ids []uuid.UUID, status entity.OutboxStatus, bump bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.outbox {
		e := &r.s.outbox[i]
		if !slices.Contains(ids, e.ID) {
			continue
		}
		e.Status = status
		e.UpdatedAt = time.Now()
		if bump {
			e.Attempts++
		}
	}
}

func (r *outboxRepo) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	r.setStatus(ids, entity.OutboxStatusPublished, false)
	return nil
}

func (r *outboxRepo) MarkFailed(_ context.Context, ids []uuid.UUID) error {
	r.setStatus(ids, entity.OutboxStatusNew, true)
	return nil
}

// Events returns a copy of every recorded event in insertion order.
func (s *Store) Events() []entity.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.outbox)
}

type positionRepo struct {
	s *Store
}

func (r *positionRepo) Create(ctx context.Context, p *entity.Position) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	runID, id := p.RunID, p.ID
	r.s.positions[runID] = append(r.s.positions[runID], *p)
	r.s.record(ctx, func() {
		r.s.positions[runID] = slices.DeleteFunc(r.s.positions[runID], func(o entity.Position) bool { return o.ID == id })
	})
	return nil
}

func (r *positionRepo) Latest(_ context.Context, runID uuid.UUID) (*entity.Position, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var latest *entity.Position
	for _, p := range r.s.positions[runID] {
		if latest == nil || p.RecordedAt.After(latest.RecordedAt) {
			latest = ptr(p)
		}
	}
	return latest, nil
}
