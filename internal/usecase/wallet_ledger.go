package usecase

import (
	"context"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/outbox"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletLedger owns balances and their append-only transaction log.
// Every mutation runs in a unit of work; callers hold the wallet lock.
type WalletLedger struct {
	tx      repository.Transactor
	wallets repository.WalletRepository
	events  *outbox.Recorder
	now     func() time.Time
	log     *zap.Logger
}

func NewWalletLedger(tx repository.Transactor, wallets repository.WalletRepository, events *outbox.Recorder, now func() time.Time, log *zap.Logger) *WalletLedger {
	return &WalletLedger{
		tx:      tx,
		wallets: wallets,
		events:  events,
		now:     now,
		log:     log.With(zap.String("ledger", "wallet")),
	}
}

// WalletAudit compares the stored balance with the replayed ledger.
type WalletAudit struct {
	Wallet       *entity.Wallet
	Computed     decimal.Decimal
	Transactions int
	Consistent   bool
}

// Balance returns the holder's wallet, creating an empty one on first use.
func (l *WalletLedger) Balance(ctx context.Context, holderID uuid.UUID) (*entity.Wallet, error) {
	return l.ensure(ctx, holderID, false)
}

func (l *WalletLedger) ensure(ctx context.Context, holderID uuid.UUID, forUpdate bool) (*entity.Wallet, error) {
	find := l.wallets.FindByHolder
	if forUpdate {
		find = l.wallets.FindByHolderForUpdate
	}

	w, err := find(ctx, holderID)
	if err != nil || w != nil {
		return w, err
	}

	now := l.now()
	if err := l.wallets.CreateIfAbsent(ctx, &entity.Wallet{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		HolderID:      holderID,
		Balance:       decimal.Zero,
		TotalCredited: decimal.Zero,
		TotalDebited:  decimal.Zero,
		IsActive:      true,
	}); err != nil {
		return nil, err
	}
	l.log.Info("Wallet created", zap.String("holder_id", holderID.String()))

	return find(ctx, holderID)
}

func (l *WalletLedger) Credit(ctx context.Context, holderID uuid.UUID, amount decimal.Decimal, description string, reference *string) (*entity.Wallet, error) {
	return l.apply(ctx, holderID, entity.DirectionCredit, amount, description, reference)
}

func (l *WalletLedger) Debit(ctx context.Context, holderID uuid.UUID, amount decimal.Decimal, description string, reference *string) (*entity.Wallet, error) {
	return l.apply(ctx, holderID, entity.DirectionDebit, amount, description, reference)
}

func (l *WalletLedger) apply(ctx context.Context, holderID uuid.UUID, dir entity.Direction, amount decimal.Decimal, description string, reference *string) (*entity.Wallet, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) || !utils.WithinLimit(amount) {
		return nil, apperr.Validation("wallet", holderID.String(), "amount must be positive, at most "+utils.MaxAmount.StringFixed(2)+", with at most two decimals")
	}

	var out *entity.Wallet
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		w, err := l.ensure(ctx, holderID, true)
		if err != nil {
			return err
		}
		if !w.IsActive {
			return apperr.WalletInactive(w.ID.String())
		}

		before := w.Balance
		switch dir {
		case entity.DirectionCredit:
			if !utils.WithinLimit(before.Add(amount)) {
				return apperr.Validation("wallet", w.ID.String(), "credit would take the balance past "+utils.MaxAmount.StringFixed(2))
			}
			w.Balance = before.Add(amount)
			w.TotalCredited = w.TotalCredited.Add(amount)
		case entity.DirectionDebit:
			if before.LessThan(amount) {
				l.log.Warn("Insufficient wallet balance",
					zap.String("wallet_id", w.ID.String()),
					zap.String("balance", before.StringFixed(2)),
					zap.String("amount", amount.StringFixed(2)),
				)
				return apperr.InsufficientFunds(w.ID.String())
			}
			w.Balance = before.Sub(amount)
			w.TotalDebited = w.TotalDebited.Add(amount)
		}

		now := l.now()
		w.UpdatedAt = now
		if err := l.wallets.Update(ctx, w); err != nil {
			return err
		}

		txn := &entity.WalletTransaction{
			BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			WalletID:      w.ID,
			Direction:     dir,
			Amount:        amount,
			Description:   description,
			BalanceBefore: before,
			BalanceAfter:  w.Balance,
			Reference:     reference,
		}
		if err := l.wallets.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		eventType := outbox.WalletCredited
		if dir == entity.DirectionDebit {
			eventType = outbox.WalletDebited
		}
		if err := l.events.Record(ctx, outbox.AggregateWallet, w.ID, eventType, map[string]any{
			"holder_id":   holderID,
			"amount":      amount,
			"balance":     w.Balance,
			"description": description,
			"reference":   reference,
		}); err != nil {
			return err
		}

		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Wallet "+string(dir),
		zap.String("wallet_id", out.ID.String()),
		zap.String("holder_id", holderID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", out.Balance.StringFixed(2)),
	)
	return out, nil
}

func (l *WalletLedger) SetActive(ctx context.Context, holderID uuid.UUID, active bool) (*entity.Wallet, error) {
	var out *entity.Wallet
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		w, err := l.ensure(ctx, holderID, true)
		if err != nil {
			return err
		}
		w.IsActive = active
		w.UpdatedAt = l.now()
		if err := l.wallets.Update(ctx, w); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("Wallet status changed", zap.String("holder_id", holderID.String()), zap.Bool("active", active))
	return out, nil
}

func (l *WalletLedger) History(ctx context.Context, holderID uuid.UUID, limit int) (*entity.Wallet, []*entity.WalletTransaction, error) {
	w, err := l.Balance(ctx, holderID)
	if err != nil {
		return nil, nil, err
	}
	txns, err := l.wallets.ListTransactions(ctx, w.ID, limit)
	if err != nil {
		return nil, nil, err
	}
	return w, txns, nil
}

// Audit replays the ledger from zero. A wallet is consistent when every
// row chains onto the previous one and the sum matches the stored balance.
func (l *WalletLedger) Audit(ctx context.Context, holderID uuid.UUID) (*WalletAudit, error) {
	w, err := l.wallets.FindByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.NotFound("wallet", holderID.String())
	}

	txns, err := l.wallets.AllTransactions(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	running := decimal.Zero
	chained := true
	for _, t := range txns {
		if !t.BalanceBefore.Equal(running) || !t.BalanceAfter.Equal(running.Add(t.Delta())) {
			chained = false
		}
		running = running.Add(t.Delta())
	}

	audit := &WalletAudit{
		Wallet:       w,
		Computed:     running,
		Transactions: len(txns),
		Consistent: chained &&
			running.Equal(w.Balance) &&
			w.Balance.Equal(w.TotalCredited.Sub(w.TotalDebited)) &&
			!w.Balance.IsNegative(),
	}
	if !audit.Consistent {
		l.log.Error("Wallet ledger mismatch",
			zap.String("wallet_id", w.ID.String()),
			zap.String("stored", w.Balance.StringFixed(2)),
			zap.String("computed", running.StringFixed(2)),
		)
	}
	return audit, nil
}
