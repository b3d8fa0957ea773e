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

type PositionRepository interface {
	Create(ctx context.Context, pos *entity.Position) error
	Latest(ctx context.Context, runID uuid.UUID) (*entity.Position, error)
}

type positionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPositionRepository(db database.PgxIface, log *zap.Logger) PositionRepository {
	return &positionRepository{
		db:  db,
		log: log.With(zap.String("repository", "position")),
	}
}

func (r *positionRepository) Create(ctx context.Context, p *entity.Position) error {
	query := `
		INSERT INTO bus_positions (id, run_id, latitude, longitude, speed, heading, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		p.ID, p.RunID, p.Latitude, p.Longitude, p.Speed, p.Heading, p.RecordedAt, p.CreatedAt)
	if err != nil {
		r.log.Error("Failed to store position",
			zap.Error(err),
			zap.String("run_id", p.RunID.String()),
		)
		return fmt.Errorf("store position for run %s: %w", p.RunID, err)
	}

	return nil
}

func (r *positionRepository) Latest(ctx context.Context, runID uuid.UUID) (*entity.Position, error) {
	query := `
		SELECT id, run_id, latitude, longitude, speed, heading, recorded_at, created_at
		FROM bus_positions
		WHERE run_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var p entity.Position
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, runID).Scan(
		&p.ID, &p.RunID, &p.Latitude, &p.Longitude, &p.Speed, &p.Heading, &p.RecordedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to read latest position",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
		return nil, fmt.Errorf("latest position for run %s: %w", runID, err)
	}

	return &p, nil
}
