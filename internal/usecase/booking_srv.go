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
	"smart-bus/internal/ticket"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, caller utils.Identity, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, holderID uuid.UUID, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, caller utils.Identity, bookingID string) (*response.BookingDetailResponse, error)
	CancelBooking(ctx context.Context, holderID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error)
	Ticket(ctx context.Context, holderID uuid.UUID, bookingID string) ([]byte, string, error)

	// Admin / external trigger
	CompleteBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	coord *Coordinator
	repo  *repository.Repository
	log   *zap.Logger
}

func NewBookingService(coord *Coordinator, repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		coord: coord,
		repo:  repo,
		log:   log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, caller utils.Identity, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	seatID, err := parseID("seat", req.SeatID)
	if err != nil {
		return nil, err
	}
	runID, err := parseID("run", req.RunID)
	if err != nil {
		return nil, err
	}
	travelDate, err := time.Parse("2006-01-02", req.TravelDate)
	if err != nil {
		return nil, apperr.Validation("booking", "", "travel_date must be YYYY-MM-DD")
	}
	price, err := utils.ParseMoney(req.Price)
	if err != nil {
		return nil, apperr.Validation("booking", "", "price is not a valid amount")
	}
	discount, err := utils.ParseMoney(req.Discount)
	if err != nil {
		return nil, apperr.Validation("booking", "", "discount is not a valid amount")
	}

	booking, err := s.coord.CreateBooking(ctx, CreateBookingParams{
		HolderID:       caller.HolderID,
		HolderCategory: caller.Category,
		SeatID:         seatID,
		RunID:          runID,
		TravelDate:     travelDate,
		Price:          price,
		Discount:       discount,
	})
	if err != nil {
		return nil, err
	}
	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, holderID uuid.UUID, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	filter := entity.BookingFilter{
		HolderID: holderID,
		Status:   entity.BookingStatus(req.Status),
		Limit:    req.Limit(),
		Offset:   req.Offset(),
	}

	bookings, err := s.repo.Booking.FindByHolder(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err), zap.String("holder_id", holderID.String()))
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	total, err := s.repo.Booking.CountByHolder(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count bookings", zap.Error(err), zap.String("holder_id", holderID.String()))
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	items := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, *response.NewBookingResponse(b))
	}
	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, caller utils.Identity, bookingID string) (*response.BookingDetailResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	owner := caller.HolderID
	if caller.Role == utils.RoleAdmin {
		owner = uuid.Nil
	}
	b, err := s.coord.loadBooking(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	detail := &response.BookingDetailResponse{BookingResponse: *response.NewBookingResponse(b)}

	seat, err := s.repo.Seat.FindByID(ctx, b.SeatID)
	if err != nil {
		return nil, err
	}
	if seat != nil {
		detail.SeatNumber = seat.SeatNumber
	}

	payments, err := s.repo.Payment.FindByBookingID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if len(payments) > 0 {
		detail.Payment = response.NewPaymentResponse(payments[len(payments)-1])
	}
	return detail, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, holderID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	b, err := s.coord.CancelBooking(ctx, holderID, id, req.Reason)
	if err != nil {
		return nil, err
	}
	return response.NewBookingResponse(b), nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	b, err := s.coord.CompleteBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return response.NewBookingResponse(b), nil
}

// Ticket renders the e-ticket for a confirmed booking.
func (s *bookingService) Ticket(ctx context.Context, holderID uuid.UUID, bookingID string) ([]byte, string, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, "", err
	}

	b, err := s.coord.loadBooking(ctx, holderID, id)
	if err != nil {
		return nil, "", err
	}
	if b.Status != entity.BookingStatusConfirmed {
		return nil, "", apperr.Conflict("booking", b.ID.String(), "is "+string(b.Status)+", tickets are issued for confirmed bookings only")
	}

	seat, err := s.repo.Seat.FindByID(ctx, b.SeatID)
	if err != nil {
		return nil, "", err
	}
	if seat == nil {
		return nil, "", apperr.NotFound("seat", b.SeatID.String())
	}
	payment, err := s.repo.Payment.FindActiveByBookingID(ctx, b.ID)
	if err != nil {
		return nil, "", err
	}

	pdf, err := ticket.Render(ticket.Details{
		Booking:    b,
		SeatNumber: seat.SeatNumber,
		SeatClass:  seat.Category,
		Payment:    payment,
		IssuedAt:   s.coord.now(),
	})
	if err != nil {
		s.log.Error("Failed to render ticket", zap.Error(err), zap.String("booking_id", b.ID.String()))
		return nil, "", err
	}
	return pdf, "ticket-" + b.BookingRef + ".pdf", nil
}
