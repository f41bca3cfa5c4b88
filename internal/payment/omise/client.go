package omisecli

import (
	"context"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/parkspot/reservations/internal/payment"
)

// Gateway authorizes through Omise using auth-only charges (capture deferred)
// and reverses them on void.
type Gateway struct {
	client *omise.Client
}

func New(publicKey, secretKey string) (*Gateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	client.SetDebug(false)
	return &Gateway{client: client}, nil
}

// Authorize creates an uncaptured charge. The SDK carries no context; the
// caller's deadline is enforced by the engine's retry budget.
func (g *Gateway) Authorize(_ context.Context, req payment.AuthorizeRequest) (string, error) {
	charge := &omise.Charge{}
	err := g.client.Do(charge, &operations.CreateCharge{
		Amount:      req.AmountCents,
		Currency:    req.Currency,
		Card:        req.PaymentMethod,
		DontCapture: true,
		Metadata:    map[string]interface{}{"idempotency_key": req.Key},
	})
	if err != nil {
		return "", &payment.GatewayError{Op: "authorize", Err: err}
	}

	switch string(charge.Status) {
	case "successful":
		return charge.ID, nil
	case "failed":
		decline := &payment.DeclinedError{}
		if charge.FailureCode != nil {
			decline.Code = *charge.FailureCode
		}
		if charge.FailureMessage != nil {
			decline.Message = *charge.FailureMessage
		}
		return "", decline
	default:
		return "", &payment.GatewayError{
			Op:  "authorize",
			Err: fmt.Errorf("unexpected charge status %q", charge.Status),
		}
	}
}

func (g *Gateway) Void(_ context.Context, ref string) error {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.ReverseCharge{ChargeID: ref}); err != nil {
		return &payment.GatewayError{Op: "void", Err: err}
	}
	return nil
}
