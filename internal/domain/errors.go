package domain

import "errors"

var (
	ErrInvalidWindow         = errors.New("invalid time window")
	ErrInvalidRecurrence     = errors.New("invalid recurrence")
	ErrSpaceNotFound         = errors.New("parking space not found")
	ErrWindowConflict        = errors.New("window conflicts with an existing reservation")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrNotHeld               = errors.New("reservation is not in a held state")
	ErrInvalidID             = errors.New("invalid id")
	ErrSpaceAlreadyExists    = errors.New("parking space already exists")
	ErrInvalidRate           = errors.New("invalid hourly rate")
	ErrPaymentMethodRequired = errors.New("payment method reference required")
)
