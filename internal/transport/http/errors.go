package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lex-codes11/skipbot/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeExternalIDRequired  = "external_id_required"
	codeHolderRequired      = "holder_id_required"
	codeInvalidVenue        = "invalid_venue"
	codeSameVenue           = "same_venue"
	codeInvalidNight        = "invalid_night"
	codeStaleNightHint      = "stale_night_hint"
	codeInvalidPosition     = "invalid_position"
	codeSoldOut             = "sold_out"
	codeIdempotencyConflict = "idempotency_conflict"
	codeInvalidSignature    = "invalid_signature"
	codeUnauthorized        = "unauthorized"
	codeInternalError       = "internal_error"
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

// writeDomainError maps ledger/engine errors onto the HTTP taxonomy.
// Unrecognized errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrExternalIDRequired):
		writeError(w, http.StatusBadRequest, codeExternalIDRequired, err.Error())
	case errors.Is(err, domain.ErrHolderRequired):
		writeError(w, http.StatusBadRequest, codeHolderRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidVenue):
		writeError(w, http.StatusBadRequest, codeInvalidVenue, err.Error())
	case errors.Is(err, domain.ErrSameVenue):
		writeError(w, http.StatusBadRequest, codeSameVenue, err.Error())
	case errors.Is(err, domain.ErrInvalidNight):
		writeError(w, http.StatusBadRequest, codeInvalidNight, err.Error())
	case errors.Is(err, domain.ErrStaleNightHint):
		writeError(w, http.StatusConflict, codeStaleNightHint, err.Error())
	case errors.Is(err, domain.ErrInvalidPosition):
		writeError(w, http.StatusConflict, codeInvalidPosition, err.Error())
	case errors.Is(err, domain.ErrSoldOut):
		writeError(w, http.StatusConflict, codeSoldOut, err.Error())
	case errors.Is(err, domain.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, codeIdempotencyConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
