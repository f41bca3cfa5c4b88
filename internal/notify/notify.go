package notify

import "context"

// Routing keys for booking state changes.
const (
	RouteBookingConfirmed = "booking.confirmed"
	RouteBookingCancelled = "booking.cancelled"
	RouteBookingExpired   = "booking.expired"
)

// BookingEvent carries enough for the messaging layer to notify the driver
// and the space owner.
type BookingEvent struct {
	ReservationID   string `json:"reservation_id"`
	SpaceID         string `json:"space_id"`
	DriverID        string `json:"driver_id"`
	SeriesID        string `json:"series_id,omitempty"`
	Start           int64  `json:"start"` // unix seconds
	End             int64  `json:"end"`
	TotalPriceCents int64  `json:"total_price_cents,omitempty"`
}

// Notifier publishes booking events. Delivery is best effort: the engine
// never ties a booking outcome to it.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, ev BookingEvent) error
}

// Nop discards every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, BookingEvent) error { return nil }
