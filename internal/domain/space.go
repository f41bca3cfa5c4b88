package domain

// ParkingSpace is the engine's view of a listed space: enough to admit and
// price a booking. The listings service owns the full record.
type ParkingSpace struct {
	ID              string
	OwnerID         string
	HourlyRateCents int64
}
