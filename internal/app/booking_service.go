package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/parkspot/reservations/internal/domain"
	"github.com/parkspot/reservations/internal/notify"
	"github.com/parkspot/reservations/internal/payment"
)

// BookingStore is what the engine needs from the reservation store.
type BookingStore interface {
	TryHold(ctx context.Context, spaceID, driverID string, window domain.TimeWindow, seriesID string) (domain.Reservation, error)
	Confirm(ctx context.Context, id string, totalPriceCents int64, authRef string) error
	Release(ctx context.Context, id string) error
	CancelSeries(ctx context.Context, seriesID string) (int, error)
	Get(ctx context.Context, id string) (domain.Reservation, error)
}

// PaymentCoordinator authorizes and voids charges, idempotent per reservation.
type PaymentCoordinator interface {
	Authorize(ctx context.Context, reservationID string, amountCents int64, currency, paymentMethod string) (string, error)
	Void(ctx context.Context, ref string) error
}

// SpaceDirectory resolves spaces through the listings collaborator.
type SpaceDirectory interface {
	Space(ctx context.Context, id string) (domain.ParkingSpace, error)
}

// BookingService drives a booking attempt through hold -> authorize ->
// confirm, compensating whatever was acquired when any step fails.
type BookingService struct {
	store    BookingStore
	payments PaymentCoordinator
	listings SpaceDirectory
	notifier notify.Notifier
	logger   *log.Logger

	currency     string
	authAttempts int
	retryBase    time.Duration
}

const (
	defaultAuthAttempts = 3
	defaultRetryBase    = 200 * time.Millisecond
	compensateTimeout   = 10 * time.Second
	notifyTimeout       = 5 * time.Second
)

func NewBookingService(store BookingStore, payments PaymentCoordinator, listings SpaceDirectory, notifier notify.Notifier, logger *log.Logger, opts ...BookingOption) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	svc := &BookingService{
		store:        store,
		payments:     payments,
		listings:     listings,
		notifier:     notifier,
		logger:       logger,
		currency:     "usd",
		authAttempts: defaultAuthAttempts,
		retryBase:    defaultRetryBase,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookingOption func(*BookingService)

func WithCurrency(currency string) BookingOption {
	return func(s *BookingService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithAuthRetry sets the bounded retry budget for transient gateway failures.
func WithAuthRetry(attempts int, base time.Duration) BookingOption {
	return func(s *BookingService) {
		if attempts > 0 {
			s.authAttempts = attempts
		}
		if base > 0 {
			s.retryBase = base
		}
	}
}

type CreateBookingInput struct {
	SpaceID          string
	DriverID         string
	StartTime        time.Time
	EndTime          time.Time
	PaymentMethodRef string
	Recurrence       *domain.Recurrence
}

type BookingResult struct {
	Reservations []domain.Reservation
	SeriesID     string
}

// CreateBooking admits one window, or a whole recurring series
// all-or-nothing: any window failing admission or payment rolls back every
// authorization and reservation already acquired for the request.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (BookingResult, error) {
	if in.PaymentMethodRef == "" {
		return BookingResult{}, domain.ErrPaymentMethodRequired
	}

	base, err := domain.NewTimeWindow(in.StartTime, in.EndTime)
	if err != nil {
		return BookingResult{}, err
	}

	windows := []domain.TimeWindow{base}
	seriesID := ""
	if in.Recurrence != nil {
		windows, err = in.Recurrence.Expand(base)
		if err != nil {
			return BookingResult{}, err
		}
		if len(windows) > 1 {
			seriesID = uuid.NewString()
		}
	}

	space, err := s.listings.Space(ctx, in.SpaceID)
	if err != nil {
		return BookingResult{}, err
	}

	confirmed := make([]domain.Reservation, 0, len(windows))
	for _, window := range windows {
		res, err := s.attempt(ctx, space, in, window, seriesID)
		if err != nil {
			s.compensate(confirmed, seriesID)
			return BookingResult{}, err
		}
		confirmed = append(confirmed, res)
	}

	s.notifyAsync(notify.RouteBookingConfirmed, confirmed)
	return BookingResult{Reservations: confirmed, SeriesID: seriesID}, nil
}

func (s *BookingService) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return s.store.Get(ctx, id)
}

// attempt runs one window through the state machine. On any failure after the
// hold, the hold is released before the error is returned; the caller rolls
// back the rest of the series.
func (s *BookingService) attempt(ctx context.Context, space domain.ParkingSpace, in CreateBookingInput, window domain.TimeWindow, seriesID string) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}

	res, err := s.store.TryHold(ctx, space.ID, in.DriverID, window, seriesID)
	if err != nil {
		return domain.Reservation{}, err
	}

	price := priceCents(space.HourlyRateCents, window.Duration())

	authRef, err := s.authorizeWithRetry(ctx, res.ID, price, in.PaymentMethodRef)
	if err != nil {
		s.releaseHold(res)
		return domain.Reservation{}, err
	}

	if err := s.store.Confirm(ctx, res.ID, price, authRef); err != nil {
		voided := true
		vctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
		if verr := s.payments.Void(vctx, authRef); verr != nil {
			voided = false
			s.logger.Printf("ERROR: void authorization %s for reservation %s: %v", authRef, res.ID, verr)
		}
		cancel()
		s.releaseHold(res)
		return domain.Reservation{}, &InconsistencyError{
			ReservationID:    res.ID,
			AuthorizationRef: authRef,
			Voided:           voided,
			Err:              err,
		}
	}

	res.Status = domain.ReservationStatusConfirmed
	res.TotalPriceCents = price
	res.AuthorizationRef = authRef
	return res, nil
}

// authorizeWithRetry retries only transient gateway failures, with
// exponential backoff, up to the configured budget. Declines are terminal.
func (s *BookingService) authorizeWithRetry(ctx context.Context, reservationID string, amountCents int64, paymentMethod string) (string, error) {
	backoff := s.retryBase
	var lastErr error

	for attempt := 0; attempt < s.authAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		ref, err := s.payments.Authorize(ctx, reservationID, amountCents, s.currency, paymentMethod)
		if err == nil {
			return ref, nil
		}

		var gwErr *payment.GatewayError
		if !errors.As(err, &gwErr) {
			return "", err
		}
		lastErr = err
		s.logger.Printf("WARN: authorize attempt %d for reservation %s: %v", attempt+1, reservationID, err)
	}

	return "", fmt.Errorf("%w: %v", ErrPaymentUnavailable, lastErr)
}

// compensate voids and cancels everything a failed series request already
// acquired. Runs on a detached context so a cancelled request still cleans
// up; the sweeper is the backstop if this fails too.
func (s *BookingService) compensate(confirmed []domain.Reservation, seriesID string) {
	if len(confirmed) == 0 && seriesID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
	defer cancel()

	for _, res := range confirmed {
		if res.AuthorizationRef == "" {
			continue
		}
		if err := s.payments.Void(ctx, res.AuthorizationRef); err != nil {
			s.logger.Printf("ERROR: void authorization %s for reservation %s: %v", res.AuthorizationRef, res.ID, err)
		}
	}

	if seriesID != "" {
		n, err := s.store.CancelSeries(ctx, seriesID)
		if err != nil {
			s.logger.Printf("ERROR: cancel series %s: %v", seriesID, err)
			return
		}
		s.logger.Printf("cancelled %d reservations from series %s", n, seriesID)
	}

	s.notifyAsync(notify.RouteBookingCancelled, confirmed)
}

func (s *BookingService) releaseHold(res domain.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
	defer cancel()

	if err := s.store.Release(ctx, res.ID); err != nil {
		s.logger.Printf("ERROR: release hold %s: %v", res.ID, err)
	}
}

func (s *BookingService) notifyAsync(routingKey string, reservations []domain.Reservation) {
	if len(reservations) == 0 {
		return
	}
	events := make([]notify.BookingEvent, 0, len(reservations))
	for _, res := range reservations {
		events = append(events, notify.BookingEvent{
			ReservationID:   res.ID,
			SpaceID:         res.SpaceID,
			DriverID:        res.DriverID,
			SeriesID:        res.SeriesID,
			Start:           res.Window.Start.Unix(),
			End:             res.Window.End.Unix(),
			TotalPriceCents: res.TotalPriceCents,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		for _, ev := range events {
			if err := s.notifier.Publish(ctx, routingKey, ev); err != nil {
				s.logger.Printf("WARN: publish %s for reservation %s: %v", routingKey, ev.ReservationID, err)
			}
		}
	}()
}

// priceCents pro-rates the hourly rate to the minute.
func priceCents(hourlyRateCents int64, d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	return hourlyRateCents * minutes / 60
}
