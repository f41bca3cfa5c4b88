package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/parkspot/reservations/internal/app"
	"github.com/parkspot/reservations/internal/domain"
	"github.com/parkspot/reservations/internal/payment"
)

// BookingCreator is the minimal interface needed to create bookings.
type BookingCreator interface {
	CreateBooking(ctx context.Context, in app.CreateBookingInput) (app.BookingResult, error)
}

// ReservationGetter is the minimal interface needed to read a reservation.
type ReservationGetter interface {
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
}

// HandleCreateBooking returns an HTTP handler for booking requests, single or
// recurring. Every failure body states whether money was taken.
func HandleCreateBooking(svc BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createBookingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if code, msg, ok := req.validate(); !ok {
			writeError(w, http.StatusBadRequest, code, msg)
			return
		}

		in := app.CreateBookingInput{
			SpaceID:          req.SpaceID,
			DriverID:         req.DriverID,
			StartTime:        req.startTime,
			EndTime:          req.endTime,
			PaymentMethodRef: req.PaymentMethodRef,
		}
		if req.Recurrence != nil {
			in.Recurrence = &domain.Recurrence{
				Frequency: domain.RecurrenceFrequency(req.Recurrence.Frequency),
				Count:     req.Recurrence.Count,
			}
		}

		result, err := svc.CreateBooking(r.Context(), in)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		resp := bookingResponse{SeriesID: result.SeriesID}
		for _, res := range result.Reservations {
			resp.Reservations = append(resp.Reservations, reservationResponse{
				ID:              res.ID,
				SpaceID:         res.SpaceID,
				Status:          string(res.Status),
				StartTime:       res.Window.Start,
				EndTime:         res.Window.End,
				TotalPriceCents: res.TotalPriceCents,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleGetReservation returns an HTTP handler for reading one reservation.
func HandleGetReservation(svc ReservationGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		id, ok := parseBookingPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		res, err := svc.GetReservation(r.Context(), id)
		if err != nil {
			switch err {
			case domain.ErrReservationNotFound:
				writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := reservationResponse{
			ID:              res.ID,
			SpaceID:         res.SpaceID,
			Status:          string(res.Status),
			StartTime:       res.Window.Start,
			EndTime:         res.Window.End,
			TotalPriceCents: res.TotalPriceCents,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeBookingError(w http.ResponseWriter, err error) {
	var declined *payment.DeclinedError
	var inconsistent *app.InconsistencyError

	switch {
	case err == domain.ErrInvalidWindow:
		writeError(w, http.StatusBadRequest, codeInvalidWindow, err.Error())
	case err == domain.ErrInvalidRecurrence:
		writeError(w, http.StatusBadRequest, codeInvalidRecurrence, err.Error())
	case err == domain.ErrPaymentMethodRequired:
		writeError(w, http.StatusBadRequest, codePaymentMethodRequired, err.Error())
	case err == domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case err == domain.ErrSpaceNotFound:
		writeError(w, http.StatusNotFound, codeSpaceNotFound, err.Error())
	case err == domain.ErrWindowConflict:
		writeError(w, http.StatusConflict, codeWindowConflict,
			"the requested window is no longer available; no charge was made")
	case errors.As(err, &declined):
		writeError(w, http.StatusPaymentRequired, codePaymentDeclined,
			"payment was declined; no charge was made")
	case errors.Is(err, app.ErrPaymentUnavailable):
		writeError(w, http.StatusBadGateway, codePaymentUnavailable,
			"payment processor unavailable; no charge was made")
	case errors.As(err, &inconsistent):
		msg := "booking failed after payment authorization; the authorization was voided and no charge remains"
		if !inconsistent.Voided {
			msg = "booking failed after payment authorization and the void did not complete; support has been notified"
		}
		writeError(w, http.StatusInternalServerError, codeBookingInconsistent, msg)
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseBookingPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "bookings" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type createBookingRequest struct {
	SpaceID          string             `json:"space_id"`
	DriverID         string             `json:"driver_id"`
	StartTime        string             `json:"start_time"`
	EndTime          string             `json:"end_time"`
	PaymentMethodRef string             `json:"payment_method_ref"`
	Recurrence       *recurrenceRequest `json:"recurrence,omitempty"`

	startTime time.Time
	endTime   time.Time
}

type recurrenceRequest struct {
	Frequency string `json:"frequency"`
	Count     int    `json:"count"`
}

func (r *createBookingRequest) validate() (code, msg string, ok bool) {
	if r.SpaceID == "" || r.DriverID == "" {
		return codeInvalidRequestBody, "space_id and driver_id are required", false
	}
	if r.PaymentMethodRef == "" {
		return codePaymentMethodRequired, domain.ErrPaymentMethodRequired.Error(), false
	}

	var err error
	if r.startTime, err = time.Parse(time.RFC3339, r.StartTime); err != nil {
		return codeInvalidWindow, "invalid start_time format", false
	}
	if r.endTime, err = time.Parse(time.RFC3339, r.EndTime); err != nil {
		return codeInvalidWindow, "invalid end_time format", false
	}
	return "", "", true
}

type bookingResponse struct {
	SeriesID     string                `json:"series_id,omitempty"`
	Reservations []reservationResponse `json:"reservations"`
}

type reservationResponse struct {
	ID              string    `json:"id"`
	SpaceID         string    `json:"space_id"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	TotalPriceCents int64     `json:"total_price_cents"`
}
