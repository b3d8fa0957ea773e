package response

import (
	"time"

	"smart-bus/internal/data/entity"
)

type WalletResponse struct {
	ID            string    `json:"id"`
	HolderID      string    `json:"holder_id"`
	Balance       string    `json:"balance"`
	TotalCredited string    `json:"total_credited"`
	TotalDebited  string    `json:"total_debited"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type WalletTransactionResponse struct {
	ID            string           `json:"id"`
	Direction     entity.Direction `json:"direction"`
	Amount        string           `json:"amount"`
	Description   string           `json:"description"`
	BalanceBefore string           `json:"balance_before"`
	BalanceAfter  string           `json:"balance_after"`
	Reference     *string          `json:"reference,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type WalletHistoryResponse struct {
	Wallet       *WalletResponse              `json:"wallet"`
	Transactions []*WalletTransactionResponse `json:"transactions"`
}

type WalletAuditResponse struct {
	Wallet       *WalletResponse `json:"wallet"`
	Computed     string          `json:"computed_balance"`
	Transactions int             `json:"transactions"`
	Consistent   bool            `json:"consistent"`
}

func NewWalletResponse(w *entity.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:            w.ID.String(),
		HolderID:      w.HolderID.String(),
		Balance:       w.Balance.StringFixed(2),
		TotalCredited: w.TotalCredited.StringFixed(2),
		TotalDebited:  w.TotalDebited.StringFixed(2),
		IsActive:      w.IsActive,
		UpdatedAt:     w.UpdatedAt,
	}
}

func NewWalletTransactionResponse(t *entity.WalletTransaction) *WalletTransactionResponse {
	return &WalletTransactionResponse{
		ID:            t.ID.String(),
		Direction:     t.Direction,
		Amount:        t.Amount.StringFixed(2),
		Description:   t.Description,
		BalanceBefore: t.BalanceBefore.StringFixed(2),
		BalanceAfter:  t.BalanceAfter.StringFixed(2),
		Reference:     t.Reference,
		CreatedAt:     t.CreatedAt,
	}
}
