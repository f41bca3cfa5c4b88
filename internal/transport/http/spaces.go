package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/parkspot/reservations/internal/app"
	"github.com/parkspot/reservations/internal/domain"
)

// SpaceAdminService is the minimal interface for the spaces admin endpoints.
type SpaceAdminService interface {
	CreateSpace(ctx context.Context, in app.CreateSpaceInput) (domain.ParkingSpace, error)
	ListSpaces(ctx context.Context) ([]domain.ParkingSpace, error)
}

// HandleAdminSpaces returns an HTTP handler for seeding and listing the
// engine's space projection.
func HandleAdminSpaces(svc SpaceAdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			spaces, err := svc.ListSpaces(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]spaceResponse, 0, len(spaces))
			for _, space := range spaces {
				resp = append(resp, spaceResponse{
					ID:              space.ID,
					OwnerID:         space.OwnerID,
					HourlyRateCents: space.HourlyRateCents,
				})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createSpaceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.OwnerID == "" {
				writeError(w, http.StatusBadRequest, codeOwnerRequired, "owner_id is required")
				return
			}

			space, err := svc.CreateSpace(r.Context(), app.CreateSpaceInput{
				ID:              req.ID,
				OwnerID:         req.OwnerID,
				HourlyRateCents: req.HourlyRateCents,
			})
			if err != nil {
				switch err {
				case domain.ErrInvalidRate:
					writeError(w, http.StatusBadRequest, codeInvalidRate, err.Error())
				case domain.ErrInvalidID:
					writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
				case domain.ErrSpaceAlreadyExists:
					writeError(w, http.StatusConflict, codeSpaceAlreadyExists, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
				return
			}

			resp := spaceResponse{
				ID:              space.ID,
				OwnerID:         space.OwnerID,
				HourlyRateCents: space.HourlyRateCents,
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(resp)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type createSpaceRequest struct {
	ID              string `json:"id,omitempty"`
	OwnerID         string `json:"owner_id"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
}

type spaceResponse struct {
	ID              string `json:"id"`
	OwnerID         string `json:"owner_id"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
}
