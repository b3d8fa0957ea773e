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

type RefundRepository interface {
	Create(ctx context.Context, refund *entity.Refund) error
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Refund, error)
	Update(ctx context.Context, refund *entity.Refund) error
}

type refundRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRefundRepository(db database.PgxIface, log *zap.Logger) RefundRepository {
	return &refundRepository{
		db:  db,
		log: log.With(zap.String("repository", "refund")),
	}
}

func (r *refundRepository) Create(ctx context.Context, rf *entity.Refund) error {
	query := `
		INSERT INTO refunds (id, refund_ref, payment_id, amount, reason, status, gateway_refund_id, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		rf.ID,
		rf.RefundRef,
		rf.PaymentID,
		rf.Amount,
		rf.Reason,
		rf.Status,
		rf.GatewayRefundID,
		rf.CompletedAt,
		rf.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create refund",
			zap.Error(err),
			zap.String("payment_id", rf.PaymentID.String()),
		)
		return fmt.Errorf("create refund for payment %s: %w", rf.PaymentID, err)
	}

	return nil
}

func (r *refundRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Refund, error) {
	query := `
		SELECT id, refund_ref, payment_id, amount, reason, status, gateway_refund_id, completed_at, created_at
		FROM refunds
		WHERE payment_id = $1
	`

	var rf entity.Refund
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, paymentID).Scan(
		&rf.ID,
		&rf.RefundRef,
		&rf.PaymentID,
		&rf.Amount,
		&rf.Reason,
		&rf.Status,
		&rf.GatewayRefundID,
		&rf.CompletedAt,
		&rf.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find refund",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return nil, fmt.Errorf("find refund for payment %s: %w", paymentID, err)
	}

	return &rf, nil
}

func (r *refundRepository) Update(ctx context.Context, rf *entity.Refund) error {
	query := `UPDATE refunds SET status = $2, gateway_refund_id = $3, completed_at = $4 WHERE id = $1`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, rf.ID, rf.Status, rf.GatewayRefundID, rf.CompletedAt); err != nil {
		r.log.Error("Failed to update refund",
			zap.Error(err),
			zap.String("refund_id", rf.ID.String()),
		)
		return fmt.Errorf("update refund %s: %w", rf.ID, err)
	}

	return nil
}
