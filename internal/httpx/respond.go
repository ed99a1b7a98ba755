package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
)

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindState, apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindGateway:
		return http.StatusBadGateway
	case apperror.KindVerification:
		return http.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func RespondError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	RespondJSON(w, StatusFor(kind), ErrorResponse{Error: ErrorBody{
		Kind:    string(kind),
		Message: apperror.MessageOf(err),
	}})
}

// DecodeJSON reads a JSON body into dst. Malformed input is a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("request body is required")
		}
		return apperror.Validation("invalid JSON body: %v", err)
	}
	return nil
}
