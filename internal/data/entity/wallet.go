package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet invariant: Balance == TotalCredited - TotalDebited >= 0.
type Wallet struct {
	Base
	HolderID      uuid.UUID       `db:"holder_id"`
	Balance       decimal.Decimal `db:"balance"`
	TotalCredited decimal.Decimal `db:"total_credited"`
	TotalDebited  decimal.Decimal `db:"total_debited"`
	IsActive      bool            `db:"is_active"`
}

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// WalletTransaction is an immutable ledger row.
type WalletTransaction struct {
	BaseSimple
	WalletID      uuid.UUID       `db:"wallet_id"`
	Direction     Direction       `db:"direction"`
	Amount        decimal.Decimal `db:"amount"`
	Description   string          `db:"description"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Reference     *string         `db:"reference"`
}

// Delta is the signed effect of the row on the balance.
func (t *WalletTransaction) Delta() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
