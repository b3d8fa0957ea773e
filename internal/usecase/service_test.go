package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/memstore"
	"smart-bus/internal/dto/request"
	"smart-bus/internal/gateway"
	"smart-bus/internal/location"
	"smart-bus/internal/lock"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := zap.NewNop()
	repo := memstore.New(log).Repository()
	coord := NewCoordinator(repo, lock.NewKeyedMutex(), gateway.NewSandbox("key", gatewaySecret, log), EngineConfig{
		Currency:     "INR",
		HoldDuration: 15 * time.Minute,
	}, log)
	tracker := location.NewTracker(repo.Position, location.NewMemoryCache(location.DefaultTTL, nil), log)

	config := &utils.Config{Booking: utils.BookingConfig{
		Currency:       "INR",
		HoldDuration:   15 * time.Minute,
		WomenSeatRatio: decimal.RequireFromString("0.2"),
	}}
	return NewService(coord, repo, tracker, config, log)
}

func TestWomenSeats(t *testing.T) {
	tests := []struct {
		total int
		ratio string
		want  int
	}{
		{40, "0.2", 8},
		{10, "0.25", 2},
		{3, "0.2", 0},
		{5, "1", 5},
		{5, "0", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WomenSeats(tt.total, decimal.RequireFromString(tt.ratio)), "%d x %s", tt.total, tt.ratio)
	}
}

func TestProvisionSeats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	runID := uuid.NewString()

	_, err := svc.Seat.GetSeatMap(ctx, runID)
	assert.True(t, apperr.IsNotFound(err))

	seatMap, err := svc.Seat.ProvisionSeats(ctx, runID, &request.ProvisionSeatsRequest{TotalSeats: 10})
	require.NoError(t, err)
	require.Len(t, seatMap.Seats, 10)
	assert.Equal(t, entity.SeatCategoryWomen, seatMap.Seats[0].Category)
	assert.Equal(t, entity.SeatCategoryWomen, seatMap.Seats[1].Category)
	assert.Equal(t, entity.SeatCategoryGeneral, seatMap.Seats[2].Category)
	assert.Equal(t, 10, seatMap.Occupancy.Available)

	_, err = svc.Seat.ProvisionSeats(ctx, runID, &request.ProvisionSeatsRequest{TotalSeats: 10})
	assert.True(t, apperr.IsConflict(err))

	_, err = svc.Seat.GetOccupancy(ctx, "nope")
	assert.True(t, apperr.IsValidation(err))
}

func TestBookingLifecycleThroughServices(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	runID := uuid.NewString()
	caller := utils.Identity{HolderID: uuid.New(), Category: "male", Role: utils.RolePassenger}

	seatMap, err := svc.Seat.ProvisionSeats(ctx, runID, &request.ProvisionSeatsRequest{TotalSeats: 5})
	require.NoError(t, err)
	seatID := seatMap.Seats[4].ID

	booking, err := svc.Booking.CreateBooking(ctx, caller, &request.CreateBookingRequest{
		SeatID:     seatID,
		RunID:      runID,
		TravelDate: "2030-01-15",
		Price:      "300.00",
		Discount:   "50",
	})
	require.NoError(t, err)
	assert.Equal(t, "250.00", booking.FinalPrice)
	assert.Equal(t, entity.BookingStatusPending, booking.Status)

	_, _, err = svc.Booking.Ticket(ctx, caller.HolderID, booking.ID)
	assert.True(t, apperr.IsConflict(err), "no ticket before payment")

	_, err = svc.Wallet.AddFunds(ctx, caller.HolderID, &request.AddFundsRequest{Amount: "400"})
	require.NoError(t, err)

	init, err := svc.Payment.InitiatePayment(ctx, caller.HolderID, &request.InitiatePaymentRequest{BookingID: booking.ID, Method: "wallet"})
	require.NoError(t, err)
	assert.Nil(t, init.Gateway)

	settled, err := svc.Payment.SettleWithWallet(ctx, caller.HolderID, init.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "150.00", settled.Balance)

	pdf, name, err := svc.Booking.Ticket(ctx, caller.HolderID, booking.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, name, booking.BookingRef)

	detail, err := svc.Booking.GetBooking(ctx, caller, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, detail.SeatNumber)
	require.NotNil(t, detail.Payment)
	assert.Equal(t, entity.PaymentStatusCompleted, detail.Payment.Status)

	_, err = svc.Booking.GetBooking(ctx, utils.Identity{HolderID: uuid.New()}, booking.ID)
	assert.True(t, apperr.IsNotFound(err), "other holders cannot see the booking")

	_, err = svc.Booking.GetBooking(ctx, utils.Identity{HolderID: uuid.New(), Role: utils.RoleAdmin}, booking.ID)
	assert.NoError(t, err)

	history, err := svc.Wallet.GetTransactions(ctx, caller.HolderID, &request.WalletHistoryRequest{Limit: 20})
	require.NoError(t, err)
	require.Len(t, history.Transactions, 2)
	assert.Equal(t, entity.DirectionDebit, history.Transactions[0].Direction, "newest first")

	list, err := svc.Booking.GetUserBookings(ctx, caller.HolderID, &request.BookingListRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		Status:           "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Pagination.Total)

	audit, err := svc.Wallet.Audit(ctx, caller.HolderID.String())
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, "150.00", audit.Computed)
}

func TestLocationServiceRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	runID := uuid.NewString()

	_, err := svc.Location.GetPosition(ctx, runID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Location.RecordPosition(ctx, runID, &request.RecordPositionRequest{Latitude: 12.97, Longitude: 77.59, Speed: 40, Heading: 180})
	require.NoError(t, err)

	pos, err := svc.Location.GetPosition(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 12.97, pos.Latitude)
}
