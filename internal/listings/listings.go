// Package listings gives the engine read access to listed parking spaces.
// The listings service owns the records; this package only resolves the
// engine's projection, optionally through a cache.
package listings

import (
	"context"

	"github.com/parkspot/reservations/internal/domain"
)

// Directory resolves a space by id. domain.ErrSpaceNotFound when unknown.
type Directory interface {
	Space(ctx context.Context, id string) (domain.ParkingSpace, error)
}
