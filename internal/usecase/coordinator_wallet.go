package usecase

import (
	"context"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (c *Coordinator) AddFunds(ctx context.Context, holderID uuid.UUID, amount decimal.Decimal) (w *entity.Wallet, err error) {
	defer func() { c.observe("add_funds", err) }()

	err = c.withWallet(ctx, holderID, func(ctx context.Context) error {
		var err error
		w, err = c.Wallets.Credit(ctx, holderID, amount, "Wallet top-up", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (c *Coordinator) SetWalletActive(ctx context.Context, holderID uuid.UUID, active bool) (w *entity.Wallet, err error) {
	defer func() { c.observe("set_wallet_active", err) }()

	err = c.withWallet(ctx, holderID, func(ctx context.Context) error {
		var err error
		w, err = c.Wallets.SetActive(ctx, holderID, active)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}
