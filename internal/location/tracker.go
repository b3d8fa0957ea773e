package location

import (
	"context"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker is the read-through front of the position store.
type Tracker struct {
	positions repository.PositionRepository
	cache     Cache
	log       *zap.Logger
}

func NewTracker(positions repository.PositionRepository, cache Cache, log *zap.Logger) *Tracker {
	return &Tracker{
		positions: positions,
		cache:     cache,
		log:       log.With(zap.String("component", "location")),
	}
}

// Record persists the fix and then refreshes the cache. A cache failure is
// logged; the next read falls through to storage.
func (t *Tracker) Record(ctx context.Context, pos *entity.Position) error {
	if err := t.positions.Create(ctx, pos); err != nil {
		return err
	}
	if err := t.cache.Set(ctx, pos); err != nil {
		t.log.Warn("Failed to cache position", zap.String("run_id", pos.RunID.String()), zap.Error(err))
	}
	return nil
}

func (t *Tracker) Latest(ctx context.Context, runID uuid.UUID) (*entity.Position, error) {
	pos, err := t.cache.Get(ctx, runID)
	switch {
	case err != nil:
		metrics.LocationCacheLookups.WithLabelValues("error").Inc()
		t.log.Warn("Position cache read failed", zap.String("run_id", runID.String()), zap.Error(err))
	case pos != nil:
		metrics.LocationCacheLookups.WithLabelValues("hit").Inc()
		return pos, nil
	default:
		metrics.LocationCacheLookups.WithLabelValues("miss").Inc()
	}

	pos, err = t.positions.Latest(ctx, runID)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, apperr.NotFound("position", runID.String())
	}

	if err := t.cache.Set(ctx, pos); err != nil {
		t.log.Warn("Failed to cache position", zap.String("run_id", runID.String()), zap.Error(err))
	}
	return pos, nil
}
