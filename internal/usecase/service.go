package usecase

import (
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/location"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service groups the facades the HTTP layer talks to. All writes go
// through the Coordinator.
type Service struct {
	Booking  BookingService
	Payment  PaymentService
	Wallet   WalletService
	Seat     SeatService
	Location LocationService
}

func NewService(coord *Coordinator, repo *repository.Repository, tracker *location.Tracker, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Booking:  NewBookingService(coord, repo, log),
		Payment:  NewPaymentService(coord, repo, log),
		Wallet:   NewWalletService(coord, log),
		Seat:     NewSeatService(repo, config.Booking, log),
		Location: NewLocationService(tracker, time.Now, log),
	}
}

func parseID(entity, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(entity, raw, "is not a valid id")
	}
	return id, nil
}
