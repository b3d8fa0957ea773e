package mocks

import (
	"context"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/dto/request"
	"smart-bus/internal/dto/response"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func ret[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type BookingService struct{ mock.Mock }

func (m *BookingService) CreateBooking(ctx context.Context, caller utils.Identity, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, caller, req)
	return ret[*response.BookingResponse](args, 0), args.Error(1)
}

func (m *BookingService) GetUserBookings(ctx context.Context, holderID uuid.UUID, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	args := m.Called(ctx, holderID, req)
	return ret[*response.PaginatedResponse[response.BookingResponse]](args, 0), args.Error(1)
}

func (m *BookingService) GetBooking(ctx context.Context, caller utils.Identity, bookingID string) (*response.BookingDetailResponse, error) {
	args := m.Called(ctx, caller, bookingID)
	return ret[*response.BookingDetailResponse](args, 0), args.Error(1)
}

func (m *BookingService) CancelBooking(ctx context.Context, holderID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, holderID, bookingID, req)
	return ret[*response.BookingResponse](args, 0), args.Error(1)
}

func (m *BookingService) Ticket(ctx context.Context, holderID uuid.UUID, bookingID string) ([]byte, string, error) {
	args := m.Called(ctx, holderID, bookingID)
	return ret[[]byte](args, 0), args.String(1), args.Error(2)
}

func (m *BookingService) CompleteBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, bookingID)
	return ret[*response.BookingResponse](args, 0), args.Error(1)
}

type PaymentService struct{ mock.Mock }

func (m *PaymentService) InitiatePayment(ctx context.Context, holderID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error) {
	args := m.Called(ctx, holderID, req)
	return ret[*response.InitiatePaymentResponse](args, 0), args.Error(1)
}

func (m *PaymentService) GetPayment(ctx context.Context, caller utils.Identity, paymentID string) (*response.PaymentResponse, error) {
	args := m.Called(ctx, caller, paymentID)
	return ret[*response.PaymentResponse](args, 0), args.Error(1)
}

func (m *PaymentService) VerifyPayment(ctx context.Context, holderID uuid.UUID, paymentID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error) {
	args := m.Called(ctx, holderID, paymentID, req)
	return ret[*response.PaymentResponse](args, 0), args.Error(1)
}

func (m *PaymentService) SettleWithWallet(ctx context.Context, holderID uuid.UUID, paymentID string) (*response.SettlementResponse, error) {
	args := m.Called(ctx, holderID, paymentID)
	return ret[*response.SettlementResponse](args, 0), args.Error(1)
}

func (m *PaymentService) RefundPayment(ctx context.Context, holderID uuid.UUID, paymentID string, req *request.RefundPaymentRequest) (*response.RefundResponse, error) {
	args := m.Called(ctx, holderID, paymentID, req)
	return ret[*response.RefundResponse](args, 0), args.Error(1)
}

func (m *PaymentService) FailPayment(ctx context.Context, paymentID string) (*response.PaymentResponse, error) {
	args := m.Called(ctx, paymentID)
	return ret[*response.PaymentResponse](args, 0), args.Error(1)
}

type WalletService struct{ mock.Mock }

func (m *WalletService) GetWallet(ctx context.Context, holderID uuid.UUID) (*response.WalletResponse, error) {
	args := m.Called(ctx, holderID)
	return ret[*response.WalletResponse](args, 0), args.Error(1)
}

func (m *WalletService) AddFunds(ctx context.Context, holderID uuid.UUID, req *request.AddFundsRequest) (*response.WalletResponse, error) {
	args := m.Called(ctx, holderID, req)
	return ret[*response.WalletResponse](args, 0), args.Error(1)
}

func (m *WalletService) GetTransactions(ctx context.Context, holderID uuid.UUID, req *request.WalletHistoryRequest) (*response.WalletHistoryResponse, error) {
	args := m.Called(ctx, holderID, req)
	return ret[*response.WalletHistoryResponse](args, 0), args.Error(1)
}

func (m *WalletService) Audit(ctx context.Context, holderID string) (*response.WalletAuditResponse, error) {
	args := m.Called(ctx, holderID)
	return ret[*response.WalletAuditResponse](args, 0), args.Error(1)
}

func (m *WalletService) SetStatus(ctx context.Context, holderID string, req *request.WalletStatusRequest) (*response.WalletResponse, error) {
	args := m.Called(ctx, holderID, req)
	return ret[*response.WalletResponse](args, 0), args.Error(1)
}

type SeatService struct{ mock.Mock }

func (m *SeatService) ProvisionSeats(ctx context.Context, runID string, req *request.ProvisionSeatsRequest) (*response.SeatMapResponse, error) {
	args := m.Called(ctx, runID, req)
	return ret[*response.SeatMapResponse](args, 0), args.Error(1)
}

func (m *SeatService) GetSeatMap(ctx context.Context, runID string) (*response.SeatMapResponse, error) {
	args := m.Called(ctx, runID)
	return ret[*response.SeatMapResponse](args, 0), args.Error(1)
}

func (m *SeatService) GetOccupancy(ctx context.Context, runID string) (*entity.Occupancy, error) {
	args := m.Called(ctx, runID)
	return ret[*entity.Occupancy](args, 0), args.Error(1)
}
