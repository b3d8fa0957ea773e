package usecase

import (
	"context"
	"time"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/dto/request"
	"smart-bus/internal/dto/response"
	"smart-bus/internal/location"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LocationService interface {
	RecordPosition(ctx context.Context, runID string, req *request.RecordPositionRequest) (*response.PositionResponse, error)
	GetPosition(ctx context.Context, runID string) (*response.PositionResponse, error)
}

type locationService struct {
	tracker *location.Tracker
	now     func() time.Time
	log     *zap.Logger
}

func NewLocationService(tracker *location.Tracker, now func() time.Time, log *zap.Logger) LocationService {
	return &locationService{
		tracker: tracker,
		now:     now,
		log:     log.With(zap.String("service", "location")),
	}
}

func (s *locationService) RecordPosition(ctx context.Context, runID string, req *request.RecordPositionRequest) (*response.PositionResponse, error) {
	id, err := parseID("run", runID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	recordedAt := now
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	pos := &entity.Position{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		RunID:      id,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Speed:      req.Speed,
		Heading:    req.Heading,
		RecordedAt: recordedAt,
	}
	if err := s.tracker.Record(ctx, pos); err != nil {
		s.log.Error("Failed to record position", zap.Error(err), zap.String("run_id", runID))
		return nil, err
	}
	return response.NewPositionResponse(pos), nil
}

func (s *locationService) GetPosition(ctx context.Context, runID string) (*response.PositionResponse, error) {
	id, err := parseID("run", runID)
	if err != nil {
		return nil, err
	}

	pos, err := s.tracker.Latest(ctx, id)
	if err != nil {
		return nil, err
	}
	return response.NewPositionResponse(pos), nil
}
