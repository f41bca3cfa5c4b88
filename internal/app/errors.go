package app

import (
	"errors"
	"fmt"
)

// ErrPaymentUnavailable means the payment processor kept failing after the
// bounded retry budget; the hold was released and no charge was kept.
var ErrPaymentUnavailable = errors.New("payment gateway unavailable")

// InconsistencyError reports a confirm failure after a successful payment
// authorization. The authorization has been voided (or a void was attempted);
// this must reach an operator, never be swallowed.
type InconsistencyError struct {
	ReservationID    string
	AuthorizationRef string
	Voided           bool
	Err              error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("confirm failed after authorization %s for reservation %s (voided=%t): %v",
		e.AuthorizationRef, e.ReservationID, e.Voided, e.Err)
}

func (e *InconsistencyError) Unwrap() error {
	return e.Err
}
