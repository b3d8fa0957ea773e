package usecase

import (
	"context"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/dto/request"
	"smart-bus/internal/dto/response"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, holderID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error)
	GetPayment(ctx context.Context, caller utils.Identity, paymentID string) (*response.PaymentResponse, error)
	VerifyPayment(ctx context.Context, holderID uuid.UUID, paymentID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error)
	SettleWithWallet(ctx context.Context, holderID uuid.UUID, paymentID string) (*response.SettlementResponse, error)
	RefundPayment(ctx context.Context, holderID uuid.UUID, paymentID string, req *request.RefundPaymentRequest) (*response.RefundResponse, error)

	// Gateway reconciliation
	FailPayment(ctx context.Context, paymentID string) (*response.PaymentResponse, error)
}

type paymentService struct {
	coord *Coordinator
	repo  *repository.Repository
	log   *zap.Logger
}

func NewPaymentService(coord *Coordinator, repo *repository.Repository, log *zap.Logger) PaymentService {
	return &paymentService{
		coord: coord,
		repo:  repo,
		log:   log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, holderID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error) {
	bookingID, err := parseID("booking", req.BookingID)
	if err != nil {
		return nil, err
	}

	out, err := s.coord.InitiatePayment(ctx, holderID, bookingID, entity.PaymentMethod(req.Method))
	if err != nil {
		return nil, err
	}
	return &response.InitiatePaymentResponse{
		Payment: response.NewPaymentResponse(out.Payment),
		Gateway: response.NewGatewayParams(out.Intent),
	}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, caller utils.Identity, paymentID string) (*response.PaymentResponse, error) {
	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	owner := caller.HolderID
	if caller.Role == utils.RoleAdmin {
		owner = uuid.Nil
	}
	p, _, err := s.coord.loadPayment(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return response.NewPaymentResponse(p), nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, holderID uuid.UUID, paymentID string, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error) {
	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	p, err := s.coord.VerifyPayment(ctx, holderID, id, req.GatewayPaymentID, req.Signature)
	if err != nil {
		return nil, err
	}
	return response.NewPaymentResponse(p), nil
}

func (s *paymentService) SettleWithWallet(ctx context.Context, holderID uuid.UUID, paymentID string) (*response.SettlementResponse, error) {
	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	p, w, err := s.coord.SettleWithWallet(ctx, holderID, id)
	if err != nil {
		return nil, err
	}
	return &response.SettlementResponse{
		Payment: response.NewPaymentResponse(p),
		Balance: w.Balance.StringFixed(2),
	}, nil
}

func (s *paymentService) RefundPayment(ctx context.Context, holderID uuid.UUID, paymentID string, req *request.RefundPaymentRequest) (*response.RefundResponse, error) {
	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	rf, err := s.coord.RefundPayment(ctx, holderID, id, req.Reason)
	if err != nil {
		return nil, err
	}
	return response.NewRefundResponse(rf), nil
}

func (s *paymentService) FailPayment(ctx context.Context, paymentID string) (*response.PaymentResponse, error) {
	id, err := parseID("payment", paymentID)
	if err != nil {
		return nil, err
	}

	p, err := s.coord.FailPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return response.NewPaymentResponse(p), nil
}
