package payment

import "context"

// AuthorizeRequest asks the processor to place an authorization hold on the
// driver's payment method without capturing it.
type AuthorizeRequest struct {
	// Key is the idempotency key sent to the processor; the engine derives it
	// from the reservation id so retries never double-charge.
	Key           string
	AmountCents   int64
	Currency      string
	PaymentMethod string
}

// Gateway is the external payment processor contract.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (ref string, err error)
	Void(ctx context.Context, ref string) error
}

// DeclinedError is a terminal outcome for the booking attempt: the processor
// rejected the payment method.
type DeclinedError struct {
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message != "" {
		return "payment declined: " + e.Message
	}
	return "payment declined"
}

// GatewayError is a retryable transport or processor failure.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return "payment gateway " + e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
