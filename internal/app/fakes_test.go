package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parkspot/reservations/internal/domain"
	"github.com/parkspot/reservations/internal/notify"
)

// fakeReservationRepo is an in-memory ReservationRepository with the same
// overlap semantics as the Postgres implementation.
type fakeReservationRepo struct {
	mu           sync.Mutex
	spaces       map[string]bool
	reservations map[string]domain.Reservation
	confirmCalls int
	failConfirm  error
}

func newFakeReservationRepo(spaceIDs []string, existing []domain.Reservation) *fakeReservationRepo {
	spaces := make(map[string]bool, len(spaceIDs))
	for _, id := range spaceIDs {
		spaces[id] = true
	}
	reservations := make(map[string]domain.Reservation, len(existing))
	for _, res := range existing {
		if res.ID == "" {
			res.ID = uuid.NewString()
		}
		reservations[res.ID] = res
	}
	return &fakeReservationRepo{
		spaces:       spaces,
		reservations: reservations,
	}
}

func (f *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeReservationRepo) LockSpace(_ context.Context, spaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.spaces[spaceID] {
		return domain.ErrSpaceNotFound
	}
	return nil
}

func (f *fakeReservationRepo) HasOverlap(_ context.Context, spaceID string, window domain.TimeWindow, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, res := range f.reservations {
		if res.SpaceID != spaceID || !res.Active(now) {
			continue
		}
		if res.Window.Overlaps(window) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReservationRepo) CreateReservation(_ context.Context, res domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeReservationRepo) GetReservation(_ context.Context, id string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeReservationRepo) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	return f.GetReservation(ctx, id)
}

func (f *fakeReservationRepo) SetConfirmed(_ context.Context, id string, totalPriceCents int64, authRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConfirm != nil {
		return f.failConfirm
	}
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = domain.ReservationStatusConfirmed
	res.TotalPriceCents = totalPriceCents
	res.AuthorizationRef = authRef
	f.reservations[id] = res
	f.confirmCalls++
	return nil
}

func (f *fakeReservationRepo) SetStatus(_ context.Context, id string, status domain.ReservationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = status
	f.reservations[id] = res
	return nil
}

func (f *fakeReservationRepo) CancelSeriesReservations(_ context.Context, seriesID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, res := range f.reservations {
		if res.SeriesID != seriesID {
			continue
		}
		if res.Status == domain.ReservationStatusHeld || res.Status == domain.ReservationStatusConfirmed {
			res.Status = domain.ReservationStatusCancelled
			f.reservations[id] = res
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) ExpireHeldBefore(_ context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []domain.Reservation
	for id, res := range f.reservations {
		if res.Status == domain.ReservationStatusHeld && !res.ExpiresAt.After(cutoff) {
			res.Status = domain.ReservationStatusExpired
			f.reservations[id] = res
			expired = append(expired, res)
		}
	}
	return expired, nil
}

// activeCount reports how many reservations still block a window.
func (f *fakeReservationRepo) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, res := range f.reservations {
		if res.Status == domain.ReservationStatusHeld || res.Status == domain.ReservationStatusConfirmed {
			count++
		}
	}
	return count
}

// fakeGatewayCoordinator scripts Authorize outcomes per call and records
// every void.
type fakeGatewayCoordinator struct {
	mu             sync.Mutex
	authorizeErrs  []error
	authorizeCalls int
	voided         []string
}

func (f *fakeGatewayCoordinator) Authorize(_ context.Context, reservationID string, _ int64, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorizeCalls++
	if len(f.authorizeErrs) > 0 {
		err := f.authorizeErrs[0]
		f.authorizeErrs = f.authorizeErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "auth-" + reservationID, nil
}

func (f *fakeGatewayCoordinator) Void(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voided = append(f.voided, ref)
	return nil
}

func (f *fakeGatewayCoordinator) voidedRefs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.voided...)
}

type fakeDirectory struct {
	spaces map[string]domain.ParkingSpace
}

func (f *fakeDirectory) Space(_ context.Context, id string) (domain.ParkingSpace, error) {
	space, ok := f.spaces[id]
	if !ok {
		return domain.ParkingSpace{}, domain.ErrSpaceNotFound
	}
	return space, nil
}

// recordingNotifier forwards events to a channel so tests can wait for the
// asynchronous publish.
type recordingNotifier struct {
	events chan publishedEvent
}

type publishedEvent struct {
	routingKey string
	event      notify.BookingEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan publishedEvent, 16)}
}

func (n *recordingNotifier) Publish(_ context.Context, routingKey string, ev notify.BookingEvent) error {
	n.events <- publishedEvent{routingKey: routingKey, event: ev}
	return nil
}
