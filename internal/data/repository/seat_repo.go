package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart-bus/internal/data/entity"
	"smart-bus/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error)
	FindByRunID(ctx context.Context, runID uuid.UUID) ([]*entity.Seat, error)
	Occupancy(ctx context.Context, runID uuid.UUID) (*entity.Occupancy, error)

	// Reserve marks the seat occupied only if it is currently free. It
	// reports false when another holder got there first.
	Reserve(ctx context.Context, seatID, holderID uuid.UUID, at time.Time) (bool, error)
	// Release clears occupancy; it reports whether anything changed.
	Release(ctx context.Context, seatID uuid.UUID) (bool, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, run_id, seat_number, category, is_reserved, reserved_by, reserved_at, created_at, updated_at`

func scanSeat(row pgx.Row) (*entity.Seat, error) {
	var seat entity.Seat
	err := row.Scan(
		&seat.ID,
		&seat.RunID,
		&seat.SeatNumber,
		&seat.Category,
		&seat.IsReserved,
		&seat.ReservedBy,
		&seat.ReservedAt,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `INSERT INTO seats (id, run_id, seat_number, category, is_reserved, created_at, updated_at) VALUES `
	args := make([]any, 0, len(seats)*7)

	for i, seat := range seats {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*7+1, i*7+2, i*7+3, i*7+4, i*7+5, i*7+6, i*7+7)

		args = append(args,
			seat.ID,
			seat.RunID,
			seat.SeatNumber,
			seat.Category,
			seat.IsReserved,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
	}

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, args...); err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch seats: %w", err)
	}

	return nil
}

func (r *seatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	seat, err := scanSeat(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.String("seat_id", id.String()),
		)
		return nil, fmt.Errorf("find seat %s: %w", id, err)
	}

	return seat, nil
}

func (r *seatRepository) FindByRunID(ctx context.Context, runID uuid.UUID) ([]*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE run_id = $1 ORDER BY seat_number`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, runID)
	if err != nil {
		r.log.Error("Failed to find seats by run",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
		return nil, fmt.Errorf("find seats for run %s: %w", runID, err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

func (r *seatRepository) Occupancy(ctx context.Context, runID uuid.UUID) (*entity.Occupancy, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_reserved)
		FROM seats
		WHERE run_id = $1
	`

	occ := entity.Occupancy{RunID: runID}
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, runID).Scan(&occ.Total, &occ.Reserved); err != nil {
		r.log.Error("Failed to count occupancy",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
		return nil, fmt.Errorf("count occupancy for run %s: %w", runID, err)
	}
	occ.Available = occ.Total - occ.Reserved

	return &occ, nil
}

func (r *seatRepository) Reserve(ctx context.Context, seatID, holderID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE seats
		SET is_reserved = TRUE, reserved_by = $2, reserved_at = $3, updated_at = $3
		WHERE id = $1 AND is_reserved = FALSE
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, seatID, holderID, at)
	if err != nil {
		r.log.Error("Failed to reserve seat",
			zap.Error(err),
			zap.String("seat_id", seatID.String()),
			zap.String("holder_id", holderID.String()),
		)
		return false, fmt.Errorf("reserve seat %s: %w", seatID, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *seatRepository) Release(ctx context.Context, seatID uuid.UUID) (bool, error) {
	query := `
		UPDATE seats
		SET is_reserved = FALSE, reserved_by = NULL, reserved_at = NULL, updated_at = NOW()
		WHERE id = $1 AND is_reserved = TRUE
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, seatID)
	if err != nil {
		r.log.Error("Failed to release seat",
			zap.Error(err),
			zap.String("seat_id", seatID.String()),
		)
		return false, fmt.Errorf("release seat %s: %w", seatID, err)
	}

	return result.RowsAffected() == 1, nil
}
