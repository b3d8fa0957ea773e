package memstore

import (
	"context"
	"fmt"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
)

type walletRepo struct {
	s *Store
}

func (r *walletRepo) FindByHolder(_ context.Context, holderID uuid.UUID) (*entity.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[holderID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *walletRepo) FindByHolderForUpdate(ctx context.Context, holderID uuid.UUID) (*entity.Wallet, error) {
	return r.FindByHolder(ctx, holderID)
}

func (r *walletRepo) CreateIfAbsent(ctx context.Context, w *entity.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[w.HolderID]; ok {
		return nil
	}
	put(ctx, r.s, r.s.wallets, w.HolderID, *w)
	return nil
}

func (r *walletRepo) Update(ctx context.Context, w *entity.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[w.HolderID]; !ok {
		return fmt.Errorf("wallet %s not found", w.ID)
	}
	if w.Balance.IsNegative() || !w.Balance.Equal(w.TotalCredited.Sub(w.TotalDebited)) {
		return fmt.Errorf("wallet %s: balance check violated", w.ID)
	}
	put(ctx, r.s, r.s.wallets, w.HolderID, *w)
	return nil
}

func (r *walletRepo) AppendTransaction(ctx context.Context, t *entity.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	walletID := t.WalletID
	n := len(r.s.walletTxns[walletID])
	r.s.walletTxns[walletID] = append(r.s.walletTxns[walletID], *t)
	r.s.record(ctx, func() {
		r.s.walletTxns[walletID] = r.s.walletTxns[walletID][:n]
	})
	return nil
}

func (r *walletRepo) ListTransactions(_ context.Context, walletID uuid.UUID, limit int) ([]*entity.WalletTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := r.s.walletTxns[walletID]
	var out []*entity.WalletTransaction
	for i := len(rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, ptr(rows[i]))
	}
	return out, nil
}

func (r *walletRepo) AllTransactions(_ context.Context, walletID uuid.UUID) ([]*entity.WalletTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := r.s.walletTxns[walletID]
	out := make([]*entity.WalletTransaction, 0, len(rows))
	for _, t := range rows {
		out = append(out, ptr(t))
	}
	return out, nil
}
