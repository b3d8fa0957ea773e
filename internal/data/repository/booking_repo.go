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

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByIDForUpdate row-locks the booking inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindLiveBySeatID(ctx context.Context, seatID uuid.UUID) (*entity.Booking, error)
	FindByHolder(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error)
	CountByHolder(ctx context.Context, filter entity.BookingFilter) (int64, error)
	Update(ctx context.Context, booking *entity.Booking) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, booking_ref, holder_id, seat_id, run_id, travel_date, price, discount, final_price, status,
	cancellation_reason, hold_expires_at, confirmed_at, cancelled_at, completed_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingRef,
		&b.HolderID,
		&b.SeatID,
		&b.RunID,
		&b.TravelDate,
		&b.Price,
		&b.Discount,
		&b.FinalPrice,
		&b.Status,
		&b.CancellationReason,
		&b.HoldExpiresAt,
		&b.ConfirmedAt,
		&b.CancelledAt,
		&b.CompletedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_ref, holder_id, seat_id, run_id, travel_date, price, discount, final_price,
			status, hold_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		b.ID,
		b.BookingRef,
		b.HolderID,
		b.SeatID,
		b.RunID,
		b.TravelDate,
		b.Price,
		b.Discount,
		b.FinalPrice,
		b.Status,
		b.HoldExpiresAt,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_ref", b.BookingRef),
			zap.String("holder_id", b.HolderID.String()),
		)
		return fmt.Errorf("create booking %s: %w", b.BookingRef, err)
	}

	return nil
}

func (r *bookingRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Booking, error) {
	b, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}
	return b, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		r.log.Error("Failed to lock booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("lock booking %s: %w", id, err)
	}
	return b, nil
}

func (r *bookingRepository) FindLiveBySeatID(ctx context.Context, seatID uuid.UUID) (*entity.Booking, error) {
	b, err := r.findOne(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE seat_id = $1 AND status IN ('pending', 'confirmed')`, seatID)
	if err != nil {
		r.log.Error("Failed to find live booking for seat",
			zap.Error(err),
			zap.String("seat_id", seatID.String()),
		)
		return nil, fmt.Errorf("find live booking for seat %s: %w", seatID, err)
	}
	return b, nil
}

func (r *bookingRepository) FindByHolder(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE holder_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, filter.HolderID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		r.log.Error("Failed to find bookings by holder",
			zap.Error(err),
			zap.String("holder_id", filter.HolderID.String()),
		)
		return nil, fmt.Errorf("find bookings for holder %s: %w", filter.HolderID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) CountByHolder(ctx context.Context, filter entity.BookingFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE holder_id = $1 AND ($2 = '' OR status = $2)`

	var count int64
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, filter.HolderID, string(filter.Status)).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings",
			zap.Error(err),
			zap.String("holder_id", filter.HolderID.String()),
		)
		return 0, fmt.Errorf("count bookings for holder %s: %w", filter.HolderID, err)
	}

	return count, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, cancellation_reason = $3, confirmed_at = $4, cancelled_at = $5, completed_at = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		b.ID,
		b.Status,
		b.CancellationReason,
		b.ConfirmedAt,
		b.CancelledAt,
		b.CompletedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
			zap.String("status", string(b.Status)),
		)
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", b.ID)
	}

	return nil
}
