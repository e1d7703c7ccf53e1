package rest

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Id              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Provider        string `json:"provider"`
	Token           string `json:"token"`
	EncryptionSetup bool   `json:"encryptionSetup"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Provider, req.Code)
	if err != nil {
		log.Printf("Login failed: %v", err)
		h.sendError(w, http.StatusUnauthorized, "login_failed", "login failed")
		return
	}

	h.sendResponse(w, http.StatusOK, loginResponse{
		Id:              user.Id,
		Username:        user.Username,
		Email:           user.Email,
		Provider:        user.Provider,
		Token:           token,
		EncryptionSetup: user.EncryptionSetup,
	})
}

type meResponse struct {
	Id              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Provider        string `json:"provider"`
	Created         int64  `json:"created"`
	EncryptionSetup bool   `json:"encryptionSetup"`
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	h.sendResponse(w, http.StatusOK, meResponse{
		Id:              user.Id,
		Username:        user.Username,
		Email:           user.Email,
		Provider:        user.Provider,
		Created:         user.Created,
		EncryptionSetup: user.EncryptionSetup,
	})
}

func (h *Handler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteUser(r.Context(), user); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleFindUserByEmail(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	profile, err := h.Service.FindUserByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, profile)
}

// authenticate resolves the bearer token to a user, writing the 401
// itself so handlers can bail with a bare return.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
		return models.User{}, false
	}
	return user, true
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
