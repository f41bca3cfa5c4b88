package app

import (
	"context"
	"testing"
	"time"

	"github.com/parkspot/reservations/internal/clock"
	"github.com/parkspot/reservations/internal/domain"
)

func TestReservationStore_TryHold(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 90 * time.Second
	hour := func(h int) time.Time { return time.Date(2025, 6, 1, h, 0, 0, 0, time.UTC) }

	window := func(startHour, endHour int) domain.TimeWindow {
		return domain.TimeWindow{Start: hour(startHour), End: hour(endHour)}
	}

	makeStore := func(existing []domain.Reservation) (*ReservationStore, *fakeReservationRepo) {
		repo := newFakeReservationRepo([]string{"space-1"}, existing)
		st := NewReservationStore(repo, clock.NewFake(now), WithHoldTTL(ttl))
		return st, repo
	}

	t.Run("creates hold when window free", func(t *testing.T) {
		st, repo := makeStore(nil)

		res, err := st.TryHold(context.Background(), "space-1", "driver-1", window(14, 15), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.ID == "" {
			t.Fatalf("expected reservation ID to be set")
		}
		if res.Status != domain.ReservationStatusHeld {
			t.Fatalf("expected status %s, got %s", domain.ReservationStatusHeld, res.Status)
		}
		if !res.ExpiresAt.Equal(now.Add(ttl)) {
			t.Fatalf("expected expires_at %v, got %v", now.Add(ttl), res.ExpiresAt)
		}
		if len(repo.reservations) != 1 {
			t.Fatalf("expected 1 reservation in repo, got %d", len(repo.reservations))
		}
	})

	t.Run("conflict with confirmed reservation", func(t *testing.T) {
		st, repo := makeStore([]domain.Reservation{{
			ID: "r1", SpaceID: "space-1", Window: window(10, 11),
			Status: domain.ReservationStatusConfirmed,
		}})

		_, err := st.TryHold(context.Background(), "space-1", "driver-2", window(10, 12), "")
		if err != domain.ErrWindowConflict {
			t.Fatalf("expected ErrWindowConflict, got %v", err)
		}
		if len(repo.reservations) != 1 {
			t.Fatalf("expected repo unchanged on conflict")
		}
	})

	t.Run("conflict with live hold", func(t *testing.T) {
		st, _ := makeStore([]domain.Reservation{{
			ID: "r1", SpaceID: "space-1", Window: window(10, 14),
			Status: domain.ReservationStatusHeld, ExpiresAt: now.Add(time.Minute),
		}})

		_, err := st.TryHold(context.Background(), "space-1", "driver-2", window(13, 15), "")
		if err != domain.ErrWindowConflict {
			t.Fatalf("expected ErrWindowConflict, got %v", err)
		}
	})

	t.Run("touching boundary is admitted", func(t *testing.T) {
		st, _ := makeStore([]domain.Reservation{{
			ID: "r1", SpaceID: "space-1", Window: window(10, 11),
			Status: domain.ReservationStatusConfirmed,
		}})

		if _, err := st.TryHold(context.Background(), "space-1", "driver-2", window(11, 12), ""); err != nil {
			t.Fatalf("expected touching window to be admitted, got %v", err)
		}
	})

	t.Run("expired hold frees its window", func(t *testing.T) {
		st, _ := makeStore([]domain.Reservation{{
			ID: "r1", SpaceID: "space-1", Window: window(10, 14),
			Status: domain.ReservationStatusHeld, ExpiresAt: now.Add(-time.Minute),
		}})

		if _, err := st.TryHold(context.Background(), "space-1", "driver-2", window(10, 14), ""); err != nil {
			t.Fatalf("expected expired hold to free the window, got %v", err)
		}
	})

	t.Run("unknown space", func(t *testing.T) {
		st, _ := makeStore(nil)

		_, err := st.TryHold(context.Background(), "space-9", "driver-1", window(10, 11), "")
		if err != domain.ErrSpaceNotFound {
			t.Fatalf("expected ErrSpaceNotFound, got %v", err)
		}
	})

	t.Run("malformed window", func(t *testing.T) {
		st, _ := makeStore(nil)

		_, err := st.TryHold(context.Background(), "space-1", "driver-1",
			domain.TimeWindow{Start: hour(11), End: hour(10)}, "")
		if err != domain.ErrInvalidWindow {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})
}

func TestReservationStore_Confirm(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	held := domain.Reservation{
		ID: "r1", SpaceID: "space-1", Status: domain.ReservationStatusHeld,
		ExpiresAt: now.Add(time.Minute),
	}

	t.Run("confirms a live hold", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{held})
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Confirm(context.Background(), "r1", 1500, "auth-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := repo.reservations["r1"]
		if got.Status != domain.ReservationStatusConfirmed {
			t.Fatalf("expected confirmed, got %s", got.Status)
		}
		if got.TotalPriceCents != 1500 || got.AuthorizationRef != "auth-1" {
			t.Fatalf("expected price and auth ref recorded, got %+v", got)
		}
	})

	t.Run("confirming twice is a no-op", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{held})
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Confirm(context.Background(), "r1", 1500, "auth-1"); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		if err := st.Confirm(context.Background(), "r1", 1500, "auth-1"); err != nil {
			t.Fatalf("second confirm should be a no-op, got %v", err)
		}
		if repo.confirmCalls != 1 {
			t.Fatalf("expected one confirm write, got %d", repo.confirmCalls)
		}
	})

	t.Run("hold past its expiry cannot be confirmed", func(t *testing.T) {
		stale := held
		stale.ExpiresAt = now.Add(-time.Second)
		repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{stale})
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Confirm(context.Background(), "r1", 1500, "auth-1"); err != domain.ErrNotHeld {
			t.Fatalf("expected ErrNotHeld, got %v", err)
		}
	})

	t.Run("cancelled reservation cannot be confirmed", func(t *testing.T) {
		cancelled := held
		cancelled.Status = domain.ReservationStatusCancelled
		repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{cancelled})
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Confirm(context.Background(), "r1", 1500, "auth-1"); err != domain.ErrNotHeld {
			t.Fatalf("expected ErrNotHeld, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"space-1"}, nil)
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Confirm(context.Background(), "missing", 1500, "auth-1"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})
}

func TestReservationStore_Release(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("releases a hold and is idempotent", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{{
			ID: "r1", SpaceID: "space-1", Status: domain.ReservationStatusHeld,
			ExpiresAt: now.Add(time.Minute),
		}})
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Release(context.Background(), "r1"); err != nil {
			t.Fatalf("first release: %v", err)
		}
		if repo.reservations["r1"].Status != domain.ReservationStatusCancelled {
			t.Fatalf("expected cancelled, got %s", repo.reservations["r1"].Status)
		}
		if err := st.Release(context.Background(), "r1"); err != nil {
			t.Fatalf("second release should be a no-op, got %v", err)
		}
	})

	t.Run("confirmed booking is not releasable", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{{
			ID: "r1", SpaceID: "space-1", Status: domain.ReservationStatusConfirmed,
		}})
		st := NewReservationStore(repo, clock.NewFake(now))

		if err := st.Release(context.Background(), "r1"); err != domain.ErrNotHeld {
			t.Fatalf("expected ErrNotHeld, got %v", err)
		}
	})
}

func TestReservationStore_SweepExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeReservationRepo([]string{"space-1"}, []domain.Reservation{
		{ID: "r1", SpaceID: "space-1", Status: domain.ReservationStatusHeld, ExpiresAt: now.Add(-time.Second)},
		{ID: "r2", SpaceID: "space-1", Status: domain.ReservationStatusHeld, ExpiresAt: now.Add(time.Minute)},
		{ID: "r3", SpaceID: "space-1", Status: domain.ReservationStatusConfirmed},
	})
	st := NewReservationStore(repo, clock.NewFake(now))

	expired, err := st.SweepExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "r1" {
		t.Fatalf("expected only r1 to expire, got %+v", expired)
	}
	if repo.reservations["r1"].Status != domain.ReservationStatusExpired {
		t.Fatalf("expected r1 expired")
	}
	if repo.reservations["r2"].Status != domain.ReservationStatusHeld {
		t.Fatalf("expected r2 untouched")
	}
}
