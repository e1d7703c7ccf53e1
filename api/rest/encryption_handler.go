package rest

import (
	"encoding/json"
	"net/http"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
)

type keySetupRequest struct {
	Salt                string   `json:"salt"`
	EncryptedPrivateKey string   `json:"encryptedPrivateKey"`
	PublicKey           string   `json:"publicKey"`
	PublicKeyId         string   `json:"publicKeyId"`
	RecoveryEnabled     bool     `json:"recoveryEnabled"`
	RecoveryMethods     []string `json:"recoveryMethods"`
}

type keyRecordResponse struct {
	UserId              string   `json:"userId"`
	Salt                string   `json:"salt"`
	EncryptedPrivateKey string   `json:"encryptedPrivateKey"`
	PublicKey           string   `json:"publicKey"`
	PublicKeyId         string   `json:"publicKeyId"`
	RecoveryEnabled     bool     `json:"recoveryEnabled"`
	RecoveryMethods     []string `json:"recoveryMethods,omitempty"`
	Created             int64    `json:"created"`
}

func toKeyRecordResponse(record models.KeyRecord) keyRecordResponse {
	return keyRecordResponse{
		UserId:              record.UserId,
		Salt:                record.Salt,
		EncryptedPrivateKey: record.EncryptedPrivateKey,
		PublicKey:           record.PublicKey,
		PublicKeyId:         record.PublicKeyId,
		RecoveryEnabled:     record.RecoveryEnabled,
		RecoveryMethods:     record.RecoveryMethods,
		Created:             record.Created,
	}
}

func (h *Handler) HandleSetupEncryption(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req keySetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	record, err := h.Service.SetupEncryption(r.Context(), user, service.KeySetup{
		Salt:                req.Salt,
		EncryptedPrivateKey: req.EncryptedPrivateKey,
		PublicKey:           req.PublicKey,
		PublicKeyId:         req.PublicKeyId,
		RecoveryEnabled:     req.RecoveryEnabled,
		RecoveryMethods:     req.RecoveryMethods,
	})
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusCreated, toKeyRecordResponse(record))
}

func (h *Handler) HandleGetEncryptionKeys(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	record, err := h.Service.GetEncryptionKeys(r.Context(), user)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, toKeyRecordResponse(record))
}

func (h *Handler) HandleDeleteEncryption(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	existed, err := h.Service.DeleteEncryption(r.Context(), user)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true, "existed": existed})
}

// HandleGetPublicKey serves any user's public key projection. Only the
// public half leaves the server; the owner's full record stays on the
// authenticated GET /encryption route.
func (h *Handler) HandleGetPublicKey(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	info, err := h.Service.GetPublicKey(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, info)
}
