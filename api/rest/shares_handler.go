package rest

import (
	"encoding/json"
	"net/http"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
)

type createShareRequest struct {
	RecipientId    string   `json:"recipientId"`
	ItemType       string   `json:"itemType"`
	ItemId         string   `json:"itemId"`
	EncryptedKey   string   `json:"encryptedKey"`
	ShareType      string   `json:"shareType"`
	Permissions    []string `json:"permissions"`
	ExpiresInHours int      `json:"expiresInHours"`
	MaxAccesses    int      `json:"maxAccesses"`
}

func (h *Handler) HandleCreateShare(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	grant, err := h.Service.CreateShare(r.Context(), user, service.CreateShareParams{
		RecipientId:    req.RecipientId,
		ItemType:       models.ItemType(req.ItemType),
		ItemId:         req.ItemId,
		EncryptedKey:   req.EncryptedKey,
		ShareType:      req.ShareType,
		Permissions:    req.Permissions,
		ExpiresInHours: req.ExpiresInHours,
		MaxAccesses:    req.MaxAccesses,
	})
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusCreated, grant)
}

// HandleListShares filters by query params: direction (sent, received,
// both), itemType, and activeOnly. activeOnly defaults to true, so
// revoked and expired grants only come back when asked for explicitly.
func (h *Handler) HandleListShares(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	direction := service.ListDirection(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = service.DirectionBoth
	}
	itemType := models.ItemType(r.URL.Query().Get("itemType"))
	activeOnly := r.URL.Query().Get("activeOnly") != "false"

	grants, err := h.Service.ListShares(r.Context(), user.Id, direction, itemType, activeOnly)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]any{"shares": grants})
}

func (h *Handler) HandleGetShare(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	grant, err := h.Service.GetShare(r.Context(), r.PathValue("shareID"), user.Id)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, grant)
}

func (h *Handler) HandleRevokeShare(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.RevokeShare(r.Context(), r.PathValue("shareID"), user.Id); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true})
}
