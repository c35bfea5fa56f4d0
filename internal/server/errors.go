package server

import (
	"encoding/json"
	"net/http"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindExtraction:
		return http.StatusUnprocessableEntity
	case domain.KindConfig:
		return http.StatusServiceUnavailable
	case domain.KindCompletion:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, statusFor(kind), errorResponse{Error: err.Error(), Kind: string(kind)})
}

func errorPayload(err error) errorResponse {
	return errorResponse{Error: err.Error(), Kind: string(domain.KindOf(err))}
}
