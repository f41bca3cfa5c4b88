package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/parkspot/reservations/internal/domain"
)

// SpaceWriter is the persistence contract for the listings projection.
type SpaceWriter interface {
	CreateSpace(ctx context.Context, space domain.ParkingSpace) error
	ListSpaces(ctx context.Context) ([]domain.ParkingSpace, error)
}

// SpaceService maintains the engine-local projection of listed spaces. The
// listings service owns the full records; the engine only needs ids, owners
// and rates.
type SpaceService struct {
	repo SpaceWriter
}

func NewSpaceService(repo SpaceWriter) *SpaceService {
	return &SpaceService{repo: repo}
}

type CreateSpaceInput struct {
	ID              string
	OwnerID         string
	HourlyRateCents int64
}

func (s *SpaceService) CreateSpace(ctx context.Context, in CreateSpaceInput) (domain.ParkingSpace, error) {
	if in.OwnerID == "" {
		return domain.ParkingSpace{}, domain.ErrInvalidID
	}
	if in.HourlyRateCents <= 0 {
		return domain.ParkingSpace{}, domain.ErrInvalidRate
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	space := domain.ParkingSpace{
		ID:              id,
		OwnerID:         in.OwnerID,
		HourlyRateCents: in.HourlyRateCents,
	}
	if err := s.repo.CreateSpace(ctx, space); err != nil {
		return domain.ParkingSpace{}, err
	}
	return space, nil
}

func (s *SpaceService) ListSpaces(ctx context.Context) ([]domain.ParkingSpace, error) {
	return s.repo.ListSpaces(ctx)
}
