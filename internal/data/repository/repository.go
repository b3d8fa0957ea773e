package repository

import (
	"smart-bus/pkg/database"

	"go.uber.org/zap"
)

// Repository groups every store the engine touches. The memory store in
// memstore builds the same aggregate for tests and single-node runs.
type Repository struct {
	Tx       Transactor
	Seat     SeatRepository
	Booking  BookingRepository
	Payment  PaymentRepository
	Refund   RefundRepository
	Wallet   WalletRepository
	Outbox   OutboxRepository
	Position PositionRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:       NewTxManager(db, log),
		Seat:     NewSeatRepository(db, log),
		Booking:  NewBookingRepository(db, log),
		Payment:  NewPaymentRepository(db, log),
		Refund:   NewRefundRepository(db, log),
		Wallet:   NewWalletRepository(db, log),
		Outbox:   NewOutboxRepository(db, log),
		Position: NewPositionRepository(db, log),
	}
}
