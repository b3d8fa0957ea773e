package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/memstore"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/gateway"
	"smart-bus/internal/lock"
	"smart-bus/internal/outbox"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
	settled   []uuid.UUID
}

func (s *recordingScheduler) ScheduleExpiry(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[id] = at
	return nil
}

func (s *recordingScheduler) Settled(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled = append(s.settled, id)
	return nil
}

const gatewaySecret = "sandbox-secret"

type EngineSuite struct {
	suite.Suite

	store     *memstore.Store
	repo      *repository.Repository
	coord     *Coordinator
	clock     *fakeClock
	scheduler *recordingScheduler
	runID     uuid.UUID
	seats     map[int]*entity.Seat
	ctx       context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New(zap.NewNop())
	s.repo = s.store.Repository()
	s.clock = &fakeClock{now: time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)}
	s.scheduler = &recordingScheduler{scheduled: make(map[uuid.UUID]time.Time)}

	s.coord = NewCoordinator(s.repo, lock.NewKeyedMutex(), gateway.NewSandbox("key", gatewaySecret, zap.NewNop()), EngineConfig{
		Currency:     "INR",
		HoldDuration: 15 * time.Minute,
		Now:          s.clock.Now,
	}, zap.NewNop())
	s.coord.SetScheduler(s.scheduler)

	s.runID = uuid.New()
	s.seats = make(map[int]*entity.Seat)
	var batch []*entity.Seat
	for n := 1; n <= 20; n++ {
		seat := &entity.Seat{
			Base:       entity.Base{ID: uuid.New(), CreatedAt: s.clock.Now(), UpdatedAt: s.clock.Now()},
			RunID:      s.runID,
			SeatNumber: n,
			Category:   entity.SeatCategoryGeneral,
		}
		if n == 12 {
			seat.Category = entity.SeatCategoryWomen
		}
		s.seats[n] = seat
		batch = append(batch, seat)
	}
	s.Require().NoError(s.repo.Seat.CreateBatch(s.ctx, batch))
}

func (s *EngineSuite) TearDownTest() {
	s.assertSeatInvariant()
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *EngineSuite) book(holder uuid.UUID, seat int, price string) *entity.Booking {
	b, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID:       holder,
		HolderCategory: "male",
		SeatID:         s.seats[seat].ID,
		RunID:          s.runID,
		TravelDate:     s.clock.Now().Add(48 * time.Hour),
		Price:          money(price),
	})
	s.Require().NoError(err)
	return b
}

func (s *EngineSuite) fund(holder uuid.UUID, amount string) {
	_, err := s.coord.AddFunds(s.ctx, holder, money(amount))
	s.Require().NoError(err)
}

func (s *EngineSuite) balance(holder uuid.UUID) decimal.Decimal {
	w, err := s.coord.Wallets.Balance(s.ctx, holder)
	s.Require().NoError(err)
	return w.Balance
}

func (s *EngineSuite) seat(n int) *entity.Seat {
	seat, err := s.repo.Seat.FindByID(s.ctx, s.seats[n].ID)
	s.Require().NoError(err)
	return seat
}

func (s *EngineSuite) booking(id uuid.UUID) *entity.Booking {
	b, err := s.repo.Booking.FindByID(s.ctx, id)
	s.Require().NoError(err)
	return b
}

func (s *EngineSuite) payment(id uuid.UUID) *entity.Payment {
	p, err := s.repo.Payment.FindByID(s.ctx, id)
	s.Require().NoError(err)
	return p
}

func (s *EngineSuite) countEvents(eventType string) int {
	n := 0
	for _, e := range s.store.Events() {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

// occupied iff exactly one live booking references the seat
func (s *EngineSuite) assertSeatInvariant() {
	for n, seat := range s.seats {
		current, err := s.repo.Seat.FindByID(s.ctx, seat.ID)
		s.Require().NoError(err)
		live, err := s.repo.Booking.FindLiveBySeatID(s.ctx, seat.ID)
		s.Require().NoError(err)
		s.Equal(current.IsReserved, live != nil, "seat %d occupancy disagrees with bookings", n)
	}
}

func (s *EngineSuite) assertLedgerConsistent(holder uuid.UUID) {
	audit, err := s.coord.Wallets.Audit(s.ctx, holder)
	s.Require().NoError(err)
	s.True(audit.Consistent)
	s.True(audit.Computed.Equal(audit.Wallet.Balance))
	s.False(audit.Wallet.Balance.IsNegative())
}

func (s *EngineSuite) TestConcurrentBookingsOnOneSeatHaveOneWinner() {
	const n = 25
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
				HolderID:       uuid.New(),
				HolderCategory: "male",
				SeatID:         s.seats[3].ID,
				RunID:          s.runID,
				TravelDate:     s.clock.Now().Add(24 * time.Hour),
				Price:          money("250"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperr.IsConflict(err):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(n-1, conflicts)
	s.True(s.seat(3).IsReserved)
}

func (s *EngineSuite) TestRestrictedSeatRejectsNonMatchingHolder() {
	_, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID:       uuid.New(),
		HolderCategory: "male",
		SeatID:         s.seats[12].ID,
		RunID:          s.runID,
		TravelDate:     s.clock.Now().Add(24 * time.Hour),
		Price:          money("250"),
	})
	s.True(apperr.IsRestriction(err))
	s.False(s.seat(12).IsReserved)
	s.Zero(s.countEvents(outbox.BookingCreated))

	b, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID:       uuid.New(),
		HolderCategory: entity.HolderCategoryFemale,
		SeatID:         s.seats[12].ID,
		RunID:          s.runID,
		TravelDate:     s.clock.Now().Add(24 * time.Hour),
		Price:          money("250"),
	})
	s.Require().NoError(err)
	s.Equal(entity.BookingStatusPending, b.Status)
}

func (s *EngineSuite) TestInsufficientFundsLeavesHoldInPlace() {
	holder := uuid.New()
	s.fund(holder, "100")
	b := s.book(holder, 5, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)
	s.Nil(init.Intent)

	_, _, err = s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.True(apperr.IsInsufficientFunds(err))

	s.Equal(entity.BookingStatusPending, s.booking(b.ID).Status)
	s.Equal(entity.PaymentStatusPending, s.payment(init.Payment.ID).Status)
	s.True(s.seat(5).IsReserved, "tentative hold survives so the holder can retry")
	s.True(s.balance(holder).Equal(money("100")))
	s.assertLedgerConsistent(holder)
}

func (s *EngineSuite) TestWalletSettlementThenCancellationRestoresBalance() {
	holder := uuid.New()
	s.fund(holder, "1000")
	b := s.book(holder, 7, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)

	p, w, err := s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)
	s.Equal(entity.PaymentStatusCompleted, p.Status)
	s.True(w.Balance.Equal(money("750")))
	s.Equal(entity.BookingStatusConfirmed, s.booking(b.ID).Status)

	cancelled, err := s.coord.CancelBooking(s.ctx, holder, b.ID, "change of plans")
	s.Require().NoError(err)
	s.Equal(entity.BookingStatusCancelled, cancelled.Status)
	s.Equal("change of plans", *cancelled.CancellationReason)

	s.Equal(entity.PaymentStatusRefunded, s.payment(p.ID).Status)
	s.True(s.balance(holder).Equal(money("1000")))
	s.False(s.seat(7).IsReserved)

	rf, err := s.repo.Refund.FindByPaymentID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusCompleted, rf.Status)
	s.True(rf.Amount.Equal(money("250")))

	s.assertLedgerConsistent(holder)
	s.Contains(s.scheduler.settled, b.ID)
}

func (s *EngineSuite) TestSettleTwiceDebitsOnce() {
	holder := uuid.New()
	s.fund(holder, "500")
	b := s.book(holder, 2, "120.50")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)

	_, first, err := s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)
	_, second, err := s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)

	s.True(first.Balance.Equal(money("379.50")))
	s.True(second.Balance.Equal(first.Balance))

	_, txns, err := s.coord.Wallets.History(s.ctx, holder, 50)
	s.Require().NoError(err)
	s.Len(txns, 2, "one top-up and one debit")
	s.Equal(1, s.countEvents(outbox.BookingConfirmed))
}

func (s *EngineSuite) TestConcurrentSettleDebitsOnce() {
	holder := uuid.New()
	s.fund(holder, "500")
	b := s.book(holder, 4, "200")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.True(s.balance(holder).Equal(money("300")))
	s.Equal(1, s.countEvents(outbox.WalletDebited))
	s.assertLedgerConsistent(holder)
}

func (s *EngineSuite) TestGatewayVerifyIsIdempotent() {
	holder := uuid.New()
	b := s.book(holder, 9, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)
	s.Require().NotNil(init.Intent)
	s.Equal(int64(25000), init.Intent.Amount)
	s.Equal(init.Payment.TransactionID, init.Intent.Receipt)

	sig := gateway.Sign(gatewaySecret, init.Intent.OrderID, "pay_123")

	for i := 0; i < 2; i++ {
		p, err := s.coord.VerifyPayment(s.ctx, holder, init.Payment.ID, "pay_123", sig)
		s.Require().NoError(err)
		s.Equal(entity.PaymentStatusCompleted, p.Status)
	}

	s.Equal(entity.BookingStatusConfirmed, s.booking(b.ID).Status)
	s.Equal(1, s.countEvents(outbox.PaymentCompleted))
	s.Equal(1, s.countEvents(outbox.BookingConfirmed))
}

func (s *EngineSuite) TestInvalidSignatureKeepsPaymentPending() {
	holder := uuid.New()
	b := s.book(holder, 10, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)

	_, err = s.coord.VerifyPayment(s.ctx, holder, init.Payment.ID, "pay_1", "forged")
	s.True(apperr.IsValidation(err))
	s.Equal(entity.PaymentStatusPending, s.payment(init.Payment.ID).Status)
	s.Equal(entity.BookingStatusPending, s.booking(b.ID).Status)
}

func (s *EngineSuite) TestWrongSettlementPathRejected() {
	holder := uuid.New()
	b := s.book(holder, 11, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)

	_, _, err = s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.True(apperr.IsValidation(err))
}

func (s *EngineSuite) TestRefundRoundTripForWalletPayment() {
	holder := uuid.New()
	s.fund(holder, "400")
	b := s.book(holder, 14, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)
	_, _, err = s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)

	rf, err := s.coord.RefundPayment(s.ctx, holder, init.Payment.ID, "bus breakdown")
	s.Require().NoError(err)
	s.True(rf.Amount.Equal(money("250")))

	again, err := s.coord.RefundPayment(s.ctx, holder, init.Payment.ID, "bus breakdown")
	s.Require().NoError(err)
	s.Equal(rf.RefundRef, again.RefundRef, "second refund returns the first")

	s.True(s.balance(holder).Equal(money("400")))
	s.False(s.seat(14).IsReserved)
	s.Equal(entity.BookingStatusCancelled, s.booking(b.ID).Status)
	s.Equal(2, s.countEvents(outbox.WalletCredited), "top-up plus exactly one refund credit")
	s.assertLedgerConsistent(holder)
}

func (s *EngineSuite) TestGatewayRefundReportedToProcessor() {
	holder := uuid.New()
	b := s.book(holder, 15, "99.99")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)
	sig := gateway.Sign(gatewaySecret, init.Intent.OrderID, "pay_g1")
	_, err = s.coord.VerifyPayment(s.ctx, holder, init.Payment.ID, "pay_g1", sig)
	s.Require().NoError(err)

	_, err = s.coord.RefundPayment(s.ctx, holder, init.Payment.ID, "duplicate charge")
	s.Require().NoError(err)

	rf, err := s.repo.Refund.FindByPaymentID(s.ctx, init.Payment.ID)
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusCompleted, rf.Status)
	s.Require().NotNil(rf.GatewayRefundID)

	w, err := s.repo.Wallet.FindByHolder(s.ctx, holder)
	s.Require().NoError(err)
	s.Nil(w, "gateway refunds never touch the wallet")
}

func (s *EngineSuite) TestRefundRequiresCompletedPayment() {
	holder := uuid.New()
	b := s.book(holder, 16, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)

	_, err = s.coord.RefundPayment(s.ctx, holder, init.Payment.ID, "nope")
	s.True(apperr.IsConflict(err))
	s.True(s.seat(16).IsReserved)
}

func (s *EngineSuite) TestCancelPendingBookingFailsPendingPayment() {
	holder := uuid.New()
	b := s.book(holder, 17, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)

	_, err = s.coord.CancelBooking(s.ctx, holder, b.ID, "changed mind")
	s.Require().NoError(err)

	s.Equal(entity.PaymentStatusFailed, s.payment(init.Payment.ID).Status)
	s.False(s.seat(17).IsReserved)

	_, err = s.coord.CancelBooking(s.ctx, holder, b.ID, "again")
	s.True(apperr.IsAlreadyTerminal(err))
}

func (s *EngineSuite) TestCancelByAnotherHolderIsNotFound() {
	b := s.book(uuid.New(), 18, "250")

	_, err := s.coord.CancelBooking(s.ctx, uuid.New(), b.ID, "not mine")
	s.True(apperr.IsNotFound(err))
	s.True(s.seat(18).IsReserved)
}

func (s *EngineSuite) TestReinitiateSupersedesPendingPayment() {
	holder := uuid.New()
	b := s.book(holder, 19, "250")

	first, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)
	second, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)

	s.Equal(entity.PaymentStatusFailed, s.payment(first.Payment.ID).Status)
	s.Equal(entity.PaymentStatusPending, s.payment(second.Payment.ID).Status)
	s.NotEqual(first.Payment.TransactionID, second.Payment.TransactionID)
}

func (s *EngineSuite) TestInitiateOnConfirmedBookingIsNotFound() {
	holder := uuid.New()
	s.fund(holder, "300")
	b := s.book(holder, 20, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)
	_, _, err = s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)

	_, err = s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.True(apperr.IsNotFound(err))

	_, err = s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethod("cash"))
	s.True(apperr.IsValidation(err))
}

func (s *EngineSuite) TestHoldExpiry() {
	holder := uuid.New()
	b := s.book(holder, 6, "250")
	s.Require().NotNil(b.HoldExpiresAt)
	s.Equal(*b.HoldExpiresAt, s.scheduler.scheduled[b.ID])

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)

	expired, err := s.coord.ExpireBooking(s.ctx, b.ID)
	s.Require().NoError(err)
	s.False(expired, "deadline still ahead")
	s.True(s.seat(6).IsReserved)

	s.clock.Advance(16 * time.Minute)
	expired, err = s.coord.ExpireBooking(s.ctx, b.ID)
	s.Require().NoError(err)
	s.True(expired)

	got := s.booking(b.ID)
	s.Equal(entity.BookingStatusCancelled, got.Status)
	s.Equal(ReasonHoldExpired, *got.CancellationReason)
	s.Equal(entity.PaymentStatusFailed, s.payment(init.Payment.ID).Status)
	s.False(s.seat(6).IsReserved)
	s.Equal(1, s.countEvents(outbox.BookingExpired))

	expired, err = s.coord.ExpireBooking(s.ctx, b.ID)
	s.Require().NoError(err)
	s.False(expired)
}

func (s *EngineSuite) TestExpiryIgnoresConfirmedBooking() {
	holder := uuid.New()
	s.fund(holder, "300")
	b := s.book(holder, 8, "250")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)
	_, _, err = s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	expired, err := s.coord.ExpireBooking(s.ctx, b.ID)
	s.Require().NoError(err)
	s.False(expired)
	s.Equal(entity.BookingStatusConfirmed, s.booking(b.ID).Status)
}

func (s *EngineSuite) TestCompleteAfterTravelDate() {
	holder := uuid.New()
	s.fund(holder, "300")
	b := s.book(holder, 13, "250")

	_, err := s.coord.CompleteBooking(s.ctx, b.ID)
	s.True(apperr.IsConflict(err), "pending bookings cannot complete")

	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)
	_, _, err = s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)

	_, err = s.coord.CompleteBooking(s.ctx, b.ID)
	s.True(apperr.IsValidation(err))

	s.clock.Advance(49 * time.Hour)
	done, err := s.coord.CompleteBooking(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(entity.BookingStatusCompleted, done.Status)
	s.False(s.seat(13).IsReserved)

	_, err = s.coord.CancelBooking(s.ctx, holder, b.ID, "too late")
	s.True(apperr.IsAlreadyTerminal(err))
}

func (s *EngineSuite) TestBookingValidation() {
	holder := uuid.New()

	_, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: s.seats[1].ID, RunID: s.runID,
		TravelDate: s.clock.Now(), Price: money("100"), Discount: money("150"),
	})
	s.True(apperr.IsValidation(err))

	_, err = s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: s.seats[1].ID, RunID: uuid.New(),
		TravelDate: s.clock.Now(), Price: money("100"),
	})
	s.True(apperr.IsNotFound(err), "seat does not belong to that run")

	_, err = s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: uuid.New(), RunID: s.runID,
		TravelDate: s.clock.Now(), Price: money("100"),
	})
	s.True(apperr.IsNotFound(err))

	b, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: s.seats[1].ID, RunID: s.runID,
		TravelDate: s.clock.Now(), Price: money("100"), Discount: money("20"),
	})
	s.Require().NoError(err)
	s.True(b.FinalPrice.Equal(money("80")))
	s.True(s.seat(1).IsReserved)
}

func (s *EngineSuite) TestConcurrentTopUpsKeepLedgerConsistent() {
	holder := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.coord.AddFunds(s.ctx, holder, money("10.25"))
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.True(s.balance(holder).Equal(money("205")))
	s.assertLedgerConsistent(holder)
}

func (s *EngineSuite) TestInactiveWalletRejectsMovements() {
	holder := uuid.New()
	s.fund(holder, "50")

	_, err := s.coord.SetWalletActive(s.ctx, holder, false)
	s.Require().NoError(err)

	_, err = s.coord.AddFunds(s.ctx, holder, money("10"))
	s.True(apperr.IsWalletInactive(err))

	_, err = s.coord.AddFunds(s.ctx, holder, money("-1"))
	s.True(apperr.IsValidation(err))

	_, err = s.coord.SetWalletActive(s.ctx, holder, true)
	s.Require().NoError(err)
	_, err = s.coord.AddFunds(s.ctx, holder, money("10"))
	s.NoError(err)
	s.True(s.balance(holder).Equal(money("60")))
}

// flakyGateway fails the first refunds it is asked for.
type flakyGateway struct {
	*gateway.Sandbox

	mu       sync.Mutex
	failures int
	receipts []string
	onRefund func()
}

func (g *flakyGateway) Refund(ctx context.Context, paymentRef, receipt string, amount int64) (*gateway.RefundResult, error) {
	g.mu.Lock()
	g.receipts = append(g.receipts, receipt)
	fail := len(g.receipts) <= g.failures
	g.mu.Unlock()

	if g.onRefund != nil {
		g.onRefund()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, &gateway.StatusError{StatusCode: 503, Body: "upstream unavailable"}
	}
	return g.Sandbox.Refund(ctx, paymentRef, receipt, amount)
}

func (g *flakyGateway) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.receipts...)
}

func (s *EngineSuite) useGateway(g *flakyGateway) {
	g.Sandbox = gateway.NewSandbox("key", gatewaySecret, zap.NewNop())
	s.coord.gateway = g
}

func (s *EngineSuite) paidByGateway(holder uuid.UUID, seat int) *entity.Payment {
	b := s.book(holder, seat, "180")
	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodGateway)
	s.Require().NoError(err)
	ref := "pay_" + strconv.Itoa(seat)
	sig := gateway.Sign(gatewaySecret, init.Intent.OrderID, ref)
	p, err := s.coord.VerifyPayment(s.ctx, holder, init.Payment.ID, ref, sig)
	s.Require().NoError(err)
	return p
}

func (s *EngineSuite) paidByWallet(holder uuid.UUID, seat int, price string) *entity.Payment {
	b := s.book(holder, seat, price)
	init, err := s.coord.InitiatePayment(s.ctx, holder, b.ID, entity.PaymentMethodWallet)
	s.Require().NoError(err)
	p, _, err := s.coord.SettleWithWallet(s.ctx, holder, init.Payment.ID)
	s.Require().NoError(err)
	return p
}

func (s *EngineSuite) TestFailedGatewayRefundIsRetried() {
	gw := &flakyGateway{failures: 1}
	s.useGateway(gw)

	holder := uuid.New()
	p := s.paidByGateway(holder, 3)

	first, err := s.coord.RefundPayment(s.ctx, holder, p.ID, "bus cancelled")
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusFailed, first.Status)
	s.Nil(first.GatewayRefundID)
	s.Equal(entity.PaymentStatusRefunded, s.payment(p.ID).Status)
	s.False(s.seat(3).IsReserved)

	retried, err := s.coord.RefundPayment(s.ctx, holder, p.ID, "bus cancelled")
	s.Require().NoError(err)
	s.Equal(first.RefundRef, retried.RefundRef)
	s.Equal(entity.RefundStatusCompleted, retried.Status)
	s.Require().NotNil(retried.GatewayRefundID)

	stored, err := s.repo.Refund.FindByPaymentID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusCompleted, stored.Status)

	again, err := s.coord.RefundPayment(s.ctx, holder, p.ID, "bus cancelled")
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusCompleted, again.Status)

	s.Equal([]string{first.RefundRef, first.RefundRef}, gw.calls(), "each attempt carries the refund ref as receipt")
	s.Equal(1, s.countEvents(outbox.PaymentRefunded))
}

func (s *EngineSuite) TestGatewayRefundOutlivesCallerCancellation() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	gw := &flakyGateway{onRefund: cancel}
	s.useGateway(gw)

	holder := uuid.New()
	p := s.paidByGateway(holder, 4)

	rf, err := s.coord.RefundPayment(ctx, holder, p.ID, "duplicate charge")
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusCompleted, rf.Status)

	stored, err := s.repo.Refund.FindByPaymentID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(entity.RefundStatusCompleted, stored.Status)
	s.Len(gw.calls(), 1)
}

func (s *EngineSuite) TestRacingRefundAndCancelCreditOnce() {
	for _, seat := range []int{1, 2, 5, 7, 9} {
		holder := uuid.New()
		s.fund(holder, "300")
		p := s.paidByWallet(holder, seat, "250")

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.coord.RefundPayment(s.ctx, holder, p.ID, "bus breakdown")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.coord.CancelBooking(s.ctx, holder, p.BookingID, "change of plans")
			errs <- err
		}()
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				s.True(apperr.IsAlreadyTerminal(err), "seat %d: %v", seat, err)
			}
		}

		s.Equal(entity.PaymentStatusRefunded, s.payment(p.ID).Status)
		s.Equal(entity.BookingStatusCancelled, s.booking(p.BookingID).Status)
		s.False(s.seat(seat).IsReserved)
		s.True(s.balance(holder).Equal(money("300")), "seat %d: refund credited once", seat)

		_, txns, err := s.coord.Wallets.History(s.ctx, holder, 50)
		s.Require().NoError(err)
		s.Len(txns, 3, "top-up, debit and one refund credit")
		s.assertLedgerConsistent(holder)
	}
}

func (s *EngineSuite) TestCancelRollsBackWhenRefundCreditFails() {
	holder := uuid.New()
	s.fund(holder, "500")
	p := s.paidByWallet(holder, 8, "250")

	_, err := s.coord.SetWalletActive(s.ctx, holder, false)
	s.Require().NoError(err)
	eventsBefore := len(s.store.Events())

	_, err = s.coord.CancelBooking(s.ctx, holder, p.BookingID, "change of plans")
	s.True(apperr.IsWalletInactive(err))

	s.Equal(entity.PaymentStatusCompleted, s.payment(p.ID).Status)
	s.Equal(entity.BookingStatusConfirmed, s.booking(p.BookingID).Status)
	s.True(s.seat(8).IsReserved)
	rf, err := s.repo.Refund.FindByPaymentID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(rf)
	s.Len(s.store.Events(), eventsBefore)
	s.True(s.balance(holder).Equal(money("250")))

	_, err = s.coord.SetWalletActive(s.ctx, holder, true)
	s.Require().NoError(err)
	_, err = s.coord.CancelBooking(s.ctx, holder, p.BookingID, "change of plans")
	s.Require().NoError(err)
	s.True(s.balance(holder).Equal(money("500")))
	s.assertLedgerConsistent(holder)
}

func (s *EngineSuite) TestAmountsAreCappedAtColumnLimit() {
	holder := uuid.New()

	_, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: s.seats[1].ID, RunID: s.runID,
		TravelDate: s.clock.Now(), Price: money("10000000000"),
	})
	s.True(apperr.IsValidation(err))
	s.False(s.seat(1).IsReserved)

	_, err = s.coord.AddFunds(s.ctx, holder, money("1e17"))
	s.True(apperr.IsValidation(err))

	s.fund(holder, "9999999990")
	_, err = s.coord.AddFunds(s.ctx, holder, money("20"))
	s.True(apperr.IsValidation(err), "balance may not pass the column limit")
	s.True(s.balance(holder).Equal(money("9999999990")))

	s.fund(holder, "9.99")
	s.True(s.balance(holder).Equal(money("9999999999.99")))
	s.assertLedgerConsistent(holder)
}

func (s *EngineSuite) TestTravelDateInThePastRejected() {
	holder := uuid.New()

	_, err := s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: s.seats[2].ID, RunID: s.runID,
		TravelDate: s.clock.Now().AddDate(0, 0, -1), Price: money("100"),
	})
	s.True(apperr.IsValidation(err))
	s.False(s.seat(2).IsReserved)
	s.Zero(s.countEvents(outbox.BookingCreated))

	startOfToday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err = s.coord.CreateBooking(s.ctx, CreateBookingParams{
		HolderID: holder, SeatID: s.seats[2].ID, RunID: s.runID,
		TravelDate: startOfToday, Price: money("100"),
	})
	s.NoError(err, "travel later the same day is allowed")
}

func TestBalanceCreatesWalletLazily(t *testing.T) {
	store := memstore.New(zap.NewNop())
	repo := store.Repository()
	coord := NewCoordinator(repo, lock.NewKeyedMutex(), nil, EngineConfig{Currency: "INR"}, zap.NewNop())

	holder := uuid.New()
	w, err := coord.Wallets.Balance(context.Background(), holder)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.IsActive)

	again, err := coord.Wallets.Balance(context.Background(), holder)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
}
