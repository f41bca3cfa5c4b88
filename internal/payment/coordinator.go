package payment

import (
	"context"
	"errors"
	"sync"
)

// ErrAmountMismatch means an authorization was retried under the same key
// with a different amount, which the coordinator refuses to forward.
var ErrAmountMismatch = errors.New("authorization amount mismatch for idempotency key")

type authorization struct {
	ref         string
	amountCents int64
}

// Coordinator wraps a Gateway with idempotency keyed by reservation id: a
// repeated Authorize for the same reservation and amount returns the recorded
// reference without touching the processor again. The processor-side
// idempotency key covers retries that race or cross a process restart.
type Coordinator struct {
	gateway Gateway

	mu    sync.Mutex
	auths map[string]authorization
}

func NewCoordinator(gateway Gateway) *Coordinator {
	return &Coordinator{
		gateway: gateway,
		auths:   make(map[string]authorization),
	}
}

func (c *Coordinator) Authorize(ctx context.Context, reservationID string, amountCents int64, currency, paymentMethod string) (string, error) {
	c.mu.Lock()
	if auth, ok := c.auths[reservationID]; ok {
		c.mu.Unlock()
		if auth.amountCents != amountCents {
			return "", ErrAmountMismatch
		}
		return auth.ref, nil
	}
	c.mu.Unlock()

	ref, err := c.gateway.Authorize(ctx, AuthorizeRequest{
		Key:           reservationID,
		AmountCents:   amountCents,
		Currency:      currency,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.auths[reservationID] = authorization{ref: ref, amountCents: amountCents}
	c.mu.Unlock()
	return ref, nil
}

// Void releases an authorization that will not be captured and forgets its
// idempotency record, so voiding twice is harmless.
func (c *Coordinator) Void(ctx context.Context, ref string) error {
	if err := c.gateway.Void(ctx, ref); err != nil {
		return err
	}

	c.mu.Lock()
	for id, auth := range c.auths {
		if auth.ref == ref {
			delete(c.auths, id)
			break
		}
	}
	c.mu.Unlock()
	return nil
}
