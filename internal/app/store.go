package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/parkspot/reservations/internal/clock"
	"github.com/parkspot/reservations/internal/domain"
)

// ReservationRepository is the persistence contract the store composes its
// atomic operations from. Every method joins the transaction carried in ctx.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockSpace(ctx context.Context, spaceID string) error
	HasOverlap(ctx context.Context, spaceID string, window domain.TimeWindow, now time.Time) (bool, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	SetConfirmed(ctx context.Context, id string, totalPriceCents int64, authRef string) error
	SetStatus(ctx context.Context, id string, status domain.ReservationStatus) error
	CancelSeriesReservations(ctx context.Context, seriesID string) (int, error)
	ExpireHeldBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error)
}

// ReservationStore owns every reservation state transition. The invariant it
// protects: for one space, held and confirmed reservations never overlap.
type ReservationStore struct {
	repo    ReservationRepository
	clock   clock.Clock
	holdTTL time.Duration
}

const defaultHoldTTL = 90 * time.Second

func NewReservationStore(repo ReservationRepository, clk clock.Clock, opts ...StoreOption) *ReservationStore {
	st := &ReservationStore{
		repo:    repo,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

type StoreOption func(*ReservationStore)

// WithHoldTTL overrides how long a hold blocks its window before the sweeper
// may expire it.
func WithHoldTTL(d time.Duration) StoreOption {
	return func(st *ReservationStore) {
		if d > 0 {
			st.holdTTL = d
		}
	}
}

// TryHold atomically admits a window for a space: it locks the space row,
// tests the overlap invariant against every live hold and confirmed booking,
// and inserts a held reservation only when no overlap exists. Two concurrent
// calls with overlapping windows can never both succeed.
func (st *ReservationStore) TryHold(ctx context.Context, spaceID, driverID string, window domain.TimeWindow, seriesID string) (domain.Reservation, error) {
	if _, err := domain.NewTimeWindow(window.Start, window.End); err != nil {
		return domain.Reservation{}, err
	}

	now := st.clock.Now()
	var result domain.Reservation

	err := st.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := st.repo.LockSpace(txCtx, spaceID); err != nil {
			return err
		}

		overlap, err := st.repo.HasOverlap(txCtx, spaceID, window, now)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrWindowConflict
		}

		res := domain.Reservation{
			ID:        uuid.NewString(),
			SpaceID:   spaceID,
			DriverID:  driverID,
			Window:    window,
			Status:    domain.ReservationStatusHeld,
			SeriesID:  seriesID,
			ExpiresAt: now.Add(st.holdTTL),
			CreatedAt: now,
		}
		if err := st.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Confirm transitions held -> confirmed, recording the charged total and the
// processor's authorization reference. Confirming an already confirmed
// reservation is a no-op so payment retries stay safe.
func (st *ReservationStore) Confirm(ctx context.Context, id string, totalPriceCents int64, authRef string) error {
	now := st.clock.Now()

	return st.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := st.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusConfirmed:
			return nil
		case domain.ReservationStatusHeld:
			if !res.ExpiresAt.After(now) {
				return domain.ErrNotHeld
			}
			return st.repo.SetConfirmed(txCtx, id, totalPriceCents, authRef)
		default:
			return domain.ErrNotHeld
		}
	})
}

// Release transitions held -> cancelled, freeing the window. Already
// cancelled or expired reservations are left alone; releasing a confirmed
// booking is refused (series rollback is the only path that cancels those).
func (st *ReservationStore) Release(ctx context.Context, id string) error {
	return st.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := st.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusHeld:
			return st.repo.SetStatus(txCtx, id, domain.ReservationStatusCancelled)
		case domain.ReservationStatusCancelled, domain.ReservationStatusExpired:
			return nil
		default:
			return domain.ErrNotHeld
		}
	})
}

// CancelSeries cancels every held or confirmed reservation generated by one
// recurring request.
func (st *ReservationStore) CancelSeries(ctx context.Context, seriesID string) (int, error) {
	var count int
	err := st.repo.WithTx(ctx, func(txCtx context.Context) error {
		n, err := st.repo.CancelSeriesReservations(txCtx, seriesID)
		count = n
		return err
	})
	return count, err
}

// SweepExpired expires every hold past its deadline and returns them so the
// caller can emit events. Runs off the request path.
func (st *ReservationStore) SweepExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	return st.repo.ExpireHeldBefore(ctx, now)
}

func (st *ReservationStore) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return st.repo.GetReservation(ctx, id)
}
