package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkspot/reservations/internal/domain"
)

// SpaceRepository is the engine-local projection of the listings service:
// just enough space data to admit and price bookings.
type SpaceRepository struct {
	pool *pgxpool.Pool
}

func NewSpaceRepository(pool *pgxpool.Pool) *SpaceRepository {
	return &SpaceRepository{pool: pool}
}

func (r *SpaceRepository) CreateSpace(ctx context.Context, space domain.ParkingSpace) error {
	const stmt = `INSERT INTO spaces (id, owner_id, hourly_rate_cents) VALUES ($1, $2, $3)`

	_, err := r.exec(ctx, stmt, space.ID, space.OwnerID, space.HourlyRateCents)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSpaceAlreadyExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create space: %w", err)
	}
	return nil
}

func (r *SpaceRepository) Space(ctx context.Context, id string) (domain.ParkingSpace, error) {
	const query = `SELECT id, owner_id, hourly_rate_cents FROM spaces WHERE id = $1`

	var s domain.ParkingSpace
	err := r.queryRow(ctx, query, id).Scan(&s.ID, &s.OwnerID, &s.HourlyRateCents)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ParkingSpace{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.ParkingSpace{}, domain.ErrSpaceNotFound
		}
		return domain.ParkingSpace{}, fmt.Errorf("get space: %w", err)
	}
	return s, nil
}

func (r *SpaceRepository) ListSpaces(ctx context.Context) ([]domain.ParkingSpace, error) {
	const query = `SELECT id, owner_id, hourly_rate_cents FROM spaces ORDER BY created_at`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	var spaces []domain.ParkingSpace
	for rows.Next() {
		var s domain.ParkingSpace
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.HourlyRateCents); err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

func (r *SpaceRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SpaceRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *SpaceRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
