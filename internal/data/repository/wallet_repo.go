package repository

import (
	"context"
	"errors"
	"fmt"

	"smart-bus/internal/data/entity"
	"smart-bus/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type WalletRepository interface {
	FindByHolder(ctx context.Context, holderID uuid.UUID) (*entity.Wallet, error)
	FindByHolderForUpdate(ctx context.Context, holderID uuid.UUID) (*entity.Wallet, error)
	// CreateIfAbsent inserts a zero wallet unless the holder already has one.
	CreateIfAbsent(ctx context.Context, wallet *entity.Wallet) error
	Update(ctx context.Context, wallet *entity.Wallet) error

	AppendTransaction(ctx context.Context, txn *entity.WalletTransaction) error
	// ListTransactions returns the newest rows first.
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]*entity.WalletTransaction, error)
	// AllTransactions returns the whole ledger oldest first.
	AllTransactions(ctx context.Context, walletID uuid.UUID) ([]*entity.WalletTransaction, error)
}

type walletRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWalletRepository(db database.PgxIface, log *zap.Logger) WalletRepository {
	return &walletRepository{
		db:  db,
		log: log.With(zap.String("repository", "wallet")),
	}
}

const walletColumns = `id, holder_id, balance, total_credited, total_debited, is_active, created_at, updated_at`

func (r *walletRepository) findOne(ctx context.Context, query string, holderID uuid.UUID) (*entity.Wallet, error) {
	var w entity.Wallet
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, holderID).Scan(
		&w.ID,
		&w.HolderID,
		&w.Balance,
		&w.TotalCredited,
		&w.TotalDebited,
		&w.IsActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find wallet",
			zap.Error(err),
			zap.String("holder_id", holderID.String()),
		)
		return nil, fmt.Errorf("find wallet for holder %s: %w", holderID, err)
	}
	return &w, nil
}

func (r *walletRepository) FindByHolder(ctx context.Context, holderID uuid.UUID) (*entity.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE holder_id = $1`, holderID)
}

func (r *walletRepository) FindByHolderForUpdate(ctx context.Context, holderID uuid.UUID) (*entity.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE holder_id = $1 FOR UPDATE`, holderID)
}

func (r *walletRepository) CreateIfAbsent(ctx context.Context, w *entity.Wallet) error {
	query := `
		INSERT INTO wallets (id, holder_id, balance, total_credited, total_debited, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (holder_id) DO NOTHING
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		w.ID,
		w.HolderID,
		w.Balance,
		w.TotalCredited,
		w.TotalDebited,
		w.IsActive,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create wallet",
			zap.Error(err),
			zap.String("holder_id", w.HolderID.String()),
		)
		return fmt.Errorf("create wallet for holder %s: %w", w.HolderID, err)
	}

	return nil
}

func (r *walletRepository) Update(ctx context.Context, w *entity.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $2, total_credited = $3, total_debited = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		w.ID,
		w.Balance,
		w.TotalCredited,
		w.TotalDebited,
		w.IsActive,
		w.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update wallet",
			zap.Error(err),
			zap.String("wallet_id", w.ID.String()),
		)
		return fmt.Errorf("update wallet %s: %w", w.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet %s not found", w.ID)
	}

	return nil
}

func (r *walletRepository) AppendTransaction(ctx context.Context, t *entity.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, wallet_id, direction, amount, description, balance_before, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		t.ID,
		t.WalletID,
		t.Direction,
		t.Amount,
		t.Description,
		t.BalanceBefore,
		t.BalanceAfter,
		t.Reference,
		t.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to append wallet transaction",
			zap.Error(err),
			zap.String("wallet_id", t.WalletID.String()),
			zap.String("direction", string(t.Direction)),
		)
		return fmt.Errorf("append wallet transaction: %w", err)
	}

	return nil
}

func (r *walletRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*entity.WalletTransaction, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*entity.WalletTransaction
	for rows.Next() {
		var t entity.WalletTransaction
		if err := rows.Scan(
			&t.ID,
			&t.WalletID,
			&t.Direction,
			&t.Amount,
			&t.Description,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.Reference,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}

	return txns, rows.Err()
}

const walletTxnColumns = `id, wallet_id, direction, amount, description, balance_before, balance_after, reference, created_at`

func (r *walletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]*entity.WalletTransaction, error) {
	txns, err := r.queryTransactions(ctx,
		`SELECT `+walletTxnColumns+` FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		walletID, limit)
	if err != nil {
		r.log.Error("Failed to list wallet transactions",
			zap.Error(err),
			zap.String("wallet_id", walletID.String()),
		)
		return nil, fmt.Errorf("list wallet transactions %s: %w", walletID, err)
	}
	return txns, nil
}

func (r *walletRepository) AllTransactions(ctx context.Context, walletID uuid.UUID) ([]*entity.WalletTransaction, error) {
	txns, err := r.queryTransactions(ctx,
		`SELECT `+walletTxnColumns+` FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at, id`,
		walletID)
	if err != nil {
		r.log.Error("Failed to read wallet ledger",
			zap.Error(err),
			zap.String("wallet_id", walletID.String()),
		)
		return nil, fmt.Errorf("read wallet ledger %s: %w", walletID, err)
	}
	return txns, nil
}
