package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "held"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Reservation is a booking of one parking space for one time window. A held
// reservation blocks the window while payment is pending; only a confirmed
// reservation is a booking guarantee to the driver.
type Reservation struct {
	ID       string
	SpaceID  string
	DriverID string
	Window   TimeWindow
	Status   ReservationStatus
	// TotalPriceCents is set when the reservation is confirmed.
	TotalPriceCents int64
	// SeriesID groups reservations generated from one recurring request.
	// Empty for single bookings.
	SeriesID string
	// AuthorizationRef is the payment processor's authorization id, recorded
	// on confirm so operators can reconcile charges.
	AuthorizationRef string
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Active reports whether the reservation still blocks its window at the given
// instant: confirmed, or held and not yet past its expiry.
func (r Reservation) Active(now time.Time) bool {
	switch r.Status {
	case ReservationStatusConfirmed:
		return true
	case ReservationStatusHeld:
		return r.ExpiresAt.After(now)
	default:
		return false
	}
}
