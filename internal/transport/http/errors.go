package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidWindow         = "invalid_window"
	codeInvalidRecurrence     = "invalid_recurrence"
	codeInvalidID             = "invalid_id"
	codeInvalidRate           = "invalid_rate"
	codeOwnerRequired         = "owner_id_required"
	codePaymentMethodRequired = "payment_method_required"
	codeSpaceNotFound         = "space_not_found"
	codeSpaceAlreadyExists    = "space_already_exists"
	codeReservationNotFound   = "reservation_not_found"
	codeWindowConflict        = "window_conflict"
	codePaymentDeclined       = "payment_declined"
	codePaymentUnavailable    = "payment_unavailable"
	codeBookingInconsistent   = "booking_inconsistent"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
