// Package memstore keeps every repository in process memory. It backs the
// dev profile (STORE=memory) and the engine tests, and honours the same
// conditional-update and uniqueness rules as the Postgres schema.
package memstore

import (
	"context"
	"errors"
	"sync"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errUnique = errors.New("unique constraint violated")

type Store struct {
	mu sync.Mutex

	seats      map[uuid.UUID]entity.Seat
	bookings   map[uuid.UUID]entity.Booking
	payments   map[uuid.UUID]entity.Payment
	refunds    map[uuid.UUID]entity.Refund // keyed by payment
	wallets    map[uuid.UUID]entity.Wallet // keyed by holder
	walletTxns map[uuid.UUID][]entity.WalletTransaction
	outbox     []entity.OutboxEvent
	positions  map[uuid.UUID][]entity.Position

	log *zap.Logger
}

func New(log *zap.Logger) *Store {
	return &Store{
		seats:      make(map[uuid.UUID]entity.Seat),
		bookings:   make(map[uuid.UUID]entity.Booking),
		payments:   make(map[uuid.UUID]entity.Payment),
		refunds:    make(map[uuid.UUID]entity.Refund),
		wallets:    make(map[uuid.UUID]entity.Wallet),
		walletTxns: make(map[uuid.UUID][]entity.WalletTransaction),
		positions:  make(map[uuid.UUID][]entity.Position),
		log:        log.With(zap.String("repository", "memory")),
	}
}

// Repository exposes the store through the same aggregate the Postgres
// implementation builds.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Tx:       &transactor{s: s},
		Seat:     &seatRepo{s: s},
		Booking:  &bookingRepo{s: s},
		Payment:  &paymentRepo{s: s},
		Refund:   &refundRepo{s: s},
		Wallet:   &walletRepo{s: s},
		Outbox:   &outboxRepo{s: s},
		Position: &positionRepo{s: s},
	}
}

// record registers an undo step for the transaction in ctx, if any.
// Callers hold s.mu.
func (s *Store) record(ctx context.Context, undo func()) {
	if l := undoFrom(ctx); l != nil {
		l.push(undo)
	}
}

func ptr[T any](v T) *T { return &v }
