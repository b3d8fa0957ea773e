package usecase

import (
	"context"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/gateway"
	"smart-bus/internal/lock"
	"smart-bus/internal/outbox"
	"smart-bus/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ReasonHoldExpired = "hold expired"

// HoldScheduler arranges for a pending booking to be expired once its
// hold lapses, and is told when the booking no longer needs that.
type HoldScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID uuid.UUID, at time.Time) error
	Settled(ctx context.Context, bookingID uuid.UUID) error
}

type EngineConfig struct {
	Currency     string
	HoldDuration time.Duration
	Now          func() time.Time
}

// Coordinator is the only component that drives more than one ledger or
// state machine for a single request. Every operation resolves ids with
// plain reads, takes the seat lock and then the wallet lock, and re-reads
// inside one unit of work. Gateway calls happen outside locks.
type Coordinator struct {
	repo      *repository.Repository
	locker    lock.Locker
	gateway   gateway.Gateway
	scheduler HoldScheduler

	Seats    *SeatLedger
	Wallets  *WalletLedger
	Bookings *BookingStateMachine
	Payments *PaymentStateMachine

	now func() time.Time
	log *zap.Logger
}

func NewCoordinator(repo *repository.Repository, locker lock.Locker, gw gateway.Gateway, cfg EngineConfig, log *zap.Logger) *Coordinator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	events := outbox.NewRecorder(repo.Outbox)
	seats := NewSeatLedger(repo.Seat, log)

	return &Coordinator{
		repo:      repo,
		locker:    locker,
		gateway:   gw,
		scheduler: noopScheduler{},
		Seats:     seats,
		Wallets:   NewWalletLedger(repo.Tx, repo.Wallet, events, now, log),
		Bookings:  NewBookingStateMachine(repo.Booking, seats, events, cfg.HoldDuration, now, log),
		Payments:  NewPaymentStateMachine(repo.Payment, repo.Refund, events, cfg.Currency, now, log),
		now:       now,
		log:       log.With(zap.String("service", "coordinator")),
	}
}

// SetScheduler is called once at start-up; the expiry worker needs the
// coordinator before the scheduler can exist.
func (c *Coordinator) SetScheduler(s HoldScheduler) {
	c.scheduler = s
}

type noopScheduler struct{}

func (noopScheduler) ScheduleExpiry(context.Context, uuid.UUID, time.Time) error { return nil }
func (noopScheduler) Settled(context.Context, uuid.UUID) error                  { return nil }

func (c *Coordinator) observe(op string, err error) {
	metrics.EngineOperations.WithLabelValues(op, metrics.Outcome(string(apperr.KindOf(err)))).Inc()
	if err != nil && apperr.KindOf(err) == "" {
		c.log.Error("Engine operation failed", zap.String("operation", op), zap.Error(err))
	}
}

// withSeat runs fn in a unit of work under the seat lock.
func (c *Coordinator) withSeat(ctx context.Context, seatID uuid.UUID, fn func(ctx context.Context) error) error {
	return c.locker.WithLock(ctx, lock.SeatKey(seatID.String()), func(ctx context.Context) error {
		return c.repo.Tx.WithinTransaction(ctx, fn)
	})
}

// withSeatAndWallet takes the seat lock before the wallet lock.
func (c *Coordinator) withSeatAndWallet(ctx context.Context, seatID, holderID uuid.UUID, fn func(ctx context.Context) error) error {
	return c.locker.WithLock(ctx, lock.SeatKey(seatID.String()), func(ctx context.Context) error {
		return c.locker.WithLock(ctx, lock.WalletKey(holderID.String()), func(ctx context.Context) error {
			return c.repo.Tx.WithinTransaction(ctx, fn)
		})
	})
}

func (c *Coordinator) withWallet(ctx context.Context, holderID uuid.UUID, fn func(ctx context.Context) error) error {
	return c.locker.WithLock(ctx, lock.WalletKey(holderID.String()), func(ctx context.Context) error {
		return c.repo.Tx.WithinTransaction(ctx, fn)
	})
}

// loadBooking reads a booking and checks ownership. uuid.Nil skips the
// owner check (admin and system callers).
func (c *Coordinator) loadBooking(ctx context.Context, holderID, bookingID uuid.UUID) (*entity.Booking, error) {
	b, err := c.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil || (holderID != uuid.Nil && b.HolderID != holderID) {
		return nil, apperr.NotFound("booking", bookingID.String())
	}
	return b, nil
}

func (c *Coordinator) lockedBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	b, err := c.repo.Booking.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("booking", bookingID.String())
	}
	return b, nil
}

// CreateBooking places a tentative hold on the seat. If the seat cannot be
// taken no booking is written.
func (c *Coordinator) CreateBooking(ctx context.Context, p CreateBookingParams) (b *entity.Booking, err error) {
	defer func() { c.observe("create_booking", err) }()

	err = c.withSeat(ctx, p.SeatID, func(ctx context.Context) error {
		var err error
		b, err = c.Bookings.Create(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	if b.HoldExpiresAt != nil {
		if err := c.scheduler.ScheduleExpiry(ctx, b.ID, *b.HoldExpiresAt); err != nil {
			c.log.Error("Failed to schedule hold expiry",
				zap.String("booking_id", b.ID.String()),
				zap.Error(err),
			)
		}
	}
	return b, nil
}

// CancelBooking frees the seat and settles the outstanding payment: a
// pending one fails, a completed one is refunded (to the wallet when it was
// paid from the wallet).
func (c *Coordinator) CancelBooking(ctx context.Context, holderID, bookingID uuid.UUID, reason string) (b *entity.Booking, err error) {
	defer func() { c.observe("cancel_booking", err) }()

	b, err = c.loadBooking(ctx, holderID, bookingID)
	if err != nil {
		return nil, err
	}

	var refund *entity.Refund
	var refunded *entity.Payment
	var wasPending bool

	err = c.locker.WithLock(ctx, lock.SeatKey(b.SeatID.String()), func(ctx context.Context) error {
		// stable while the seat lock is held
		active, err := c.repo.Payment.FindActiveByBookingID(ctx, b.ID)
		if err != nil {
			return err
		}

		work := func(ctx context.Context) error {
			return c.repo.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
				locked, err := c.lockedBooking(ctx, bookingID)
				if err != nil {
					return err
				}
				if locked.Status.IsTerminal() {
					return apperr.AlreadyTerminal("booking", locked.ID.String(), string(locked.Status))
				}

				if active != nil {
					p, err := c.repo.Payment.FindByIDForUpdate(ctx, active.ID)
					if err != nil {
						return err
					}
					switch p.Status {
					case entity.PaymentStatusPending:
						if err := c.Payments.Fail(ctx, p); err != nil {
							return err
						}
					case entity.PaymentStatusCompleted:
						if refund, err = c.refundInTx(ctx, p, reason); err != nil {
							return err
						}
						refunded = p
					}
				}

				wasPending = locked.Status == entity.BookingStatusPending
				if err := c.Bookings.Cancel(ctx, locked, reason, outbox.BookingCancelled); err != nil {
					return err
				}
				b = locked
				return nil
			})
		}

		if active != nil && active.Method == entity.PaymentMethodWallet && active.Status == entity.PaymentStatusCompleted {
			return c.locker.WithLock(ctx, lock.WalletKey(active.HolderID.String()), work)
		}
		return work(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.afterRefund(ctx, refunded, refund)
	if wasPending {
		c.settled(ctx, b.ID)
	}
	return b, nil
}

// CompleteBooking closes a confirmed booking after travel and frees the seat.
func (c *Coordinator) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (b *entity.Booking, err error) {
	defer func() { c.observe("complete_booking", err) }()

	b, err = c.loadBooking(ctx, uuid.Nil, bookingID)
	if err != nil {
		return nil, err
	}

	err = c.withSeat(ctx, b.SeatID, func(ctx context.Context) error {
		locked, err := c.lockedBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := c.Bookings.Complete(ctx, locked); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ExpireBooking cancels a booking whose hold has lapsed. It reports false
// and changes nothing when the booking is no longer pending or its
// deadline is still ahead.
func (c *Coordinator) ExpireBooking(ctx context.Context, bookingID uuid.UUID) (expired bool, err error) {
	defer func() { c.observe("expire_booking", err) }()

	b, err := c.loadBooking(ctx, uuid.Nil, bookingID)
	if err != nil {
		return false, err
	}

	err = c.withSeat(ctx, b.SeatID, func(ctx context.Context) error {
		locked, err := c.lockedBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if locked.Status != entity.BookingStatusPending ||
			locked.HoldExpiresAt == nil ||
			c.now().Before(*locked.HoldExpiresAt) {
			return nil
		}

		active, err := c.repo.Payment.FindActiveByBookingID(ctx, locked.ID)
		if err != nil {
			return err
		}
		if active != nil && active.Status == entity.PaymentStatusPending {
			if err := c.Payments.Fail(ctx, active); err != nil {
				return err
			}
		}

		if err := c.Bookings.Cancel(ctx, locked, ReasonHoldExpired, outbox.BookingExpired); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if expired {
		metrics.HoldsExpired.Inc()
		c.log.Info("Seat hold expired", zap.String("booking_id", bookingID.String()))
	}
	return expired, nil
}

func (c *Coordinator) settled(ctx context.Context, bookingID uuid.UUID) {
	if err := c.scheduler.Settled(ctx, bookingID); err != nil {
		c.log.Warn("Failed to signal hold settlement",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
	}
}
