package usecase

import (
	"context"

	"smart-bus/internal/apperr"
	"smart-bus/internal/dto/request"
	"smart-bus/internal/dto/response"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WalletService interface {
	GetWallet(ctx context.Context, holderID uuid.UUID) (*response.WalletResponse, error)
	AddFunds(ctx context.Context, holderID uuid.UUID, req *request.AddFundsRequest) (*response.WalletResponse, error)
	GetTransactions(ctx context.Context, holderID uuid.UUID, req *request.WalletHistoryRequest) (*response.WalletHistoryResponse, error)

	// Admin
	Audit(ctx context.Context, holderID string) (*response.WalletAuditResponse, error)
	SetStatus(ctx context.Context, holderID string, req *request.WalletStatusRequest) (*response.WalletResponse, error)
}

type walletService struct {
	coord *Coordinator
	log   *zap.Logger
}

func NewWalletService(coord *Coordinator, log *zap.Logger) WalletService {
	return &walletService{
		coord: coord,
		log:   log.With(zap.String("service", "wallet")),
	}
}

func (s *walletService) GetWallet(ctx context.Context, holderID uuid.UUID) (*response.WalletResponse, error) {
	w, err := s.coord.Wallets.Balance(ctx, holderID)
	if err != nil {
		return nil, err
	}
	return response.NewWalletResponse(w), nil
}

func (s *walletService) AddFunds(ctx context.Context, holderID uuid.UUID, req *request.AddFundsRequest) (*response.WalletResponse, error) {
	amount, err := utils.ParseMoney(req.Amount)
	if err != nil {
		return nil, apperr.Validation("wallet", holderID.String(), "amount is not a valid number")
	}

	w, err := s.coord.AddFunds(ctx, holderID, amount)
	if err != nil {
		return nil, err
	}
	return response.NewWalletResponse(w), nil
}

func (s *walletService) GetTransactions(ctx context.Context, holderID uuid.UUID, req *request.WalletHistoryRequest) (*response.WalletHistoryResponse, error) {
	w, txns, err := s.coord.Wallets.History(ctx, holderID, req.Limit)
	if err != nil {
		return nil, err
	}

	out := &response.WalletHistoryResponse{
		Wallet:       response.NewWalletResponse(w),
		Transactions: make([]*response.WalletTransactionResponse, 0, len(txns)),
	}
	for _, t := range txns {
		out.Transactions = append(out.Transactions, response.NewWalletTransactionResponse(t))
	}
	return out, nil
}

func (s *walletService) Audit(ctx context.Context, holderID string) (*response.WalletAuditResponse, error) {
	id, err := parseID("holder", holderID)
	if err != nil {
		return nil, err
	}

	audit, err := s.coord.Wallets.Audit(ctx, id)
	if err != nil {
		return nil, err
	}
	return &response.WalletAuditResponse{
		Wallet:       response.NewWalletResponse(audit.Wallet),
		Computed:     audit.Computed.StringFixed(2),
		Transactions: audit.Transactions,
		Consistent:   audit.Consistent,
	}, nil
}

func (s *walletService) SetStatus(ctx context.Context, holderID string, req *request.WalletStatusRequest) (*response.WalletResponse, error) {
	id, err := parseID("holder", holderID)
	if err != nil {
		return nil, err
	}
	if req.Active == nil {
		return nil, apperr.Validation("wallet", holderID, "active is required")
	}

	w, err := s.coord.SetWalletActive(ctx, id, *req.Active)
	if err != nil {
		return nil, err
	}
	return response.NewWalletResponse(w), nil
}
