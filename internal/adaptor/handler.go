package adaptor

import (
	"smart-bus/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Payment  *PaymentHandler
	Wallet   *WalletHandler
	Seat     *SeatHandler
	Location *LocationHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Payment:  NewPaymentHandler(service.Payment, log),
		Wallet:   NewWalletHandler(service.Wallet, log),
		Seat:     NewSeatHandler(service.Seat, log),
		Location: NewLocationHandler(service.Location, log),
	}
}
