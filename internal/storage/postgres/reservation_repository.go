package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkspot/reservations/internal/domain"
)

const reservationColumns = `id, space_id, driver_id, start_time, end_time, status, total_price_cents, series_id, authorization_ref, expires_at, created_at`

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockSpace takes a row lock on the space, serializing every admission for it
// until the surrounding transaction ends. Admissions for other spaces proceed
// without contention.
func (r *ReservationRepository) LockSpace(ctx context.Context, spaceID string) error {
	const query = `SELECT id FROM spaces WHERE id = $1 FOR UPDATE`
	var id string
	err := r.queryRow(ctx, query, spaceID).Scan(&id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.ErrSpaceNotFound
		}
		return fmt.Errorf("lock space: %w", err)
	}
	return nil
}

// HasOverlap reports whether any confirmed or live held reservation for the
// space intersects the window under half-open semantics.
func (r *ReservationRepository) HasOverlap(ctx context.Context, spaceID string, window domain.TimeWindow, now time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reservations
	WHERE space_id = $1
	  AND start_time < $3 AND end_time > $2
	  AND (status = 'confirmed' OR (status = 'held' AND expires_at > $4))
)`

	var exists bool
	if err := r.queryRow(ctx, query, spaceID, window.Start, window.End, now).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, space_id, driver_id, start_time, end_time, status, total_price_cents, series_id, authorization_ref, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.SpaceID,
		res.DriverID,
		res.Window.Start,
		res.Window.End,
		res.Status,
		res.TotalPriceCents,
		res.SeriesID,
		res.AuthorizationRef,
		res.ExpiresAt,
		res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanReservation(r.queryRow(ctx, query, id))
}

// GetReservationForUpdate locks the reservation row so state transitions on it
// are serialized.
func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return r.scanReservation(r.queryRow(ctx, query, id))
}

func (r *ReservationRepository) SetConfirmed(ctx context.Context, id string, totalPriceCents int64, authRef string) error {
	const stmt = `
UPDATE reservations
SET status = 'confirmed', total_price_cents = $2, authorization_ref = $3
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, totalPriceCents, authRef)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("confirm reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) SetStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	const stmt = `UPDATE reservations SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// CancelSeriesReservations cancels every held or confirmed reservation in a
// series and returns how many rows changed.
func (r *ReservationRepository) CancelSeriesReservations(ctx context.Context, seriesID string) (int, error) {
	const stmt = `
UPDATE reservations
SET status = 'cancelled'
WHERE series_id = $1 AND status IN ('held', 'confirmed')`

	tag, err := r.exec(ctx, stmt, seriesID)
	if err != nil {
		return 0, fmt.Errorf("cancel series: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ExpireHeldBefore moves every held reservation whose expiry is at or before
// the cutoff to expired, freeing its window, and returns the affected rows so
// the sweeper can emit events for them.
func (r *ReservationRepository) ExpireHeldBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	stmt := `
UPDATE reservations
SET status = 'expired'
WHERE status = 'held' AND expires_at <= $1
RETURNING ` + reservationColumns

	rows, err := r.query(ctx, stmt, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire holds: %w", err)
	}
	defer rows.Close()

	var expired []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.SpaceID,
			&res.DriverID,
			&res.Window.Start,
			&res.Window.End,
			&res.Status,
			&res.TotalPriceCents,
			&res.SeriesID,
			&res.AuthorizationRef,
			&res.ExpiresAt,
			&res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expired reservation: %w", err)
		}
		expired = append(expired, res)
	}
	return expired, rows.Err()
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID,
		&res.SpaceID,
		&res.DriverID,
		&res.Window.Start,
		&res.Window.End,
		&res.Status,
		&res.TotalPriceCents,
		&res.SeriesID,
		&res.AuthorizationRef,
		&res.ExpiresAt,
		&res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
