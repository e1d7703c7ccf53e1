package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/vireoapp/vireo/service"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestId string `json:"requestId,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) sendResponse(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if resp == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, code string, message string) {
	resp := errorResponse{
		Error:     code,
		Message:   message,
		RequestId: w.Header().Get("X-Request-Id"),
		Timestamp: time.Now().Unix(),
	}
	h.sendResponse(w, status, resp)
}

// sendServiceError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a 500 with a generic message so
// internals never leak to clients.
func (h *Handler) sendServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.sendError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.Is(err, service.ErrUnauthorized):
		h.sendError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
	case errors.Is(err, service.ErrNotFound):
		h.sendError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, service.ErrConflict):
		h.sendError(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, service.ErrRecipientNotEncrypted):
		h.sendError(w, http.StatusConflict, "recipient_not_encrypted", "recipient has not set up encryption")
	default:
		log.Printf("Internal error: %v", err)
		h.sendError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
