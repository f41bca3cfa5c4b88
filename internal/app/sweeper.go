package app

import (
	"context"
	"log"
	"time"

	"github.com/parkspot/reservations/internal/clock"
	"github.com/parkspot/reservations/internal/domain"
	"github.com/parkspot/reservations/internal/notify"
)

// SweepStore is what the sweeper needs from the reservation store.
type SweepStore interface {
	SweepExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// Sweeper expires abandoned holds on a fixed interval. It is the backstop for
// crashed or cancelled booking attempts that never resolved their hold.
type Sweeper struct {
	store    SweepStore
	clock    clock.Clock
	notifier notify.Notifier
	logger   *log.Logger
	interval time.Duration
}

func NewSweeper(store SweepStore, clk clock.Clock, notifier notify.Notifier, logger *log.Logger, interval time.Duration) *Sweeper {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		store:    store,
		clock:    clk,
		notifier: notifier,
		logger:   logger,
		interval: interval,
	}
}

// Run sweeps until ctx is cancelled. The first sweep happens immediately so a
// restart clears stale holds without waiting a full interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many holds were expired.
func (s *Sweeper) Sweep(ctx context.Context) int {
	expired, err := s.store.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		s.logger.Printf("ERROR: sweep expired holds: %v", err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	s.logger.Printf("expired %d stale holds", len(expired))
	for _, res := range expired {
		ev := notify.BookingEvent{
			ReservationID: res.ID,
			SpaceID:       res.SpaceID,
			DriverID:      res.DriverID,
			SeriesID:      res.SeriesID,
			Start:         res.Window.Start.Unix(),
			End:           res.Window.End.Unix(),
		}
		if err := s.notifier.Publish(ctx, notify.RouteBookingExpired, ev); err != nil {
			s.logger.Printf("WARN: publish %s for reservation %s: %v", notify.RouteBookingExpired, res.ID, err)
		}
	}
	return len(expired)
}
