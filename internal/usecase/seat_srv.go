package usecase

import (
	"context"
	"fmt"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/dto/request"
	"smart-bus/internal/dto/response"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SeatService is the seat catalog: provisioning a run's seats and reading
// its seat map. Occupancy itself only changes through the Coordinator.
type SeatService interface {
	ProvisionSeats(ctx context.Context, runID string, req *request.ProvisionSeatsRequest) (*response.SeatMapResponse, error)
	GetSeatMap(ctx context.Context, runID string) (*response.SeatMapResponse, error)
	GetOccupancy(ctx context.Context, runID string) (*entity.Occupancy, error)
}

type seatService struct {
	repo         *repository.Repository
	defaultRatio decimal.Decimal
	log          *zap.Logger
}

func NewSeatService(repo *repository.Repository, cfg utils.BookingConfig, log *zap.Logger) SeatService {
	return &seatService{
		repo:         repo,
		defaultRatio: cfg.WomenSeatRatio,
		log:          log.With(zap.String("service", "seat")),
	}
}

// WomenSeats is how many of the first seats on a run are women-only.
func WomenSeats(total int, ratio decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(total)).Mul(ratio).Floor().IntPart())
}

func (s *seatService) ProvisionSeats(ctx context.Context, runID string, req *request.ProvisionSeatsRequest) (*response.SeatMapResponse, error) {
	id, err := parseID("run", runID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Seat.FindByRunID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict("run", runID, "already has seats")
	}

	ratio := s.defaultRatio
	if req.WomenRatio != nil {
		ratio = decimal.NewFromFloat(*req.WomenRatio)
	}
	women := WomenSeats(req.TotalSeats, ratio)

	now := time.Now()
	seats := make([]*entity.Seat, 0, req.TotalSeats)
	for n := 1; n <= req.TotalSeats; n++ {
		category := entity.SeatCategoryGeneral
		if n <= women {
			category = entity.SeatCategoryWomen
		}
		seats = append(seats, &entity.Seat{
			Base:       entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			RunID:      id,
			SeatNumber: n,
			Category:   category,
		})
	}

	if err := s.repo.Seat.CreateBatch(ctx, seats); err != nil {
		s.log.Error("Failed to provision seats", zap.Error(err), zap.String("run_id", runID))
		return nil, fmt.Errorf("provision seats: %w", err)
	}

	s.log.Info("Seats provisioned",
		zap.String("run_id", runID),
		zap.Int("total", req.TotalSeats),
		zap.Int("women_only", women),
	)
	return s.GetSeatMap(ctx, runID)
}

func (s *seatService) GetSeatMap(ctx context.Context, runID string) (*response.SeatMapResponse, error) {
	id, err := parseID("run", runID)
	if err != nil {
		return nil, err
	}

	seats, err := s.repo.Seat.FindByRunID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, apperr.NotFound("run", runID)
	}

	out := &response.SeatMapResponse{
		RunID:     runID,
		Occupancy: &entity.Occupancy{RunID: id, Total: len(seats)},
		Seats:     make([]*response.SeatResponse, 0, len(seats)),
	}
	for _, seat := range seats {
		if seat.IsReserved {
			out.Occupancy.Reserved++
		}
		out.Seats = append(out.Seats, response.NewSeatResponse(seat))
	}
	out.Occupancy.Available = out.Occupancy.Total - out.Occupancy.Reserved
	return out, nil
}

func (s *seatService) GetOccupancy(ctx context.Context, runID string) (*entity.Occupancy, error) {
	id, err := parseID("run", runID)
	if err != nil {
		return nil, err
	}

	occ, err := s.repo.Seat.Occupancy(ctx, id)
	if err != nil {
		return nil, err
	}
	if occ.Total == 0 {
		return nil, apperr.NotFound("run", runID)
	}
	return occ, nil
}
