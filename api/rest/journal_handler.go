package rest

import (
	"encoding/json"
	"net/http"

	"github.com/vireoapp/vireo/service"
)

type journalEntryRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Encrypted bool   `json:"encrypted"`
	WordCount int    `json:"wordCount"`
	EntryDay  string `json:"entryDay"`
}

func (r journalEntryRequest) toParams() service.JournalEntryParams {
	return service.JournalEntryParams{
		Title:     r.Title,
		Content:   r.Content,
		Encrypted: r.Encrypted,
		WordCount: r.WordCount,
		EntryDay:  r.EntryDay,
	}
}

func (h *Handler) HandleCreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req journalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	entry, err := h.Service.CreateJournalEntry(r.Context(), user, req.toParams())
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusCreated, entry)
}

func (h *Handler) HandleListJournalEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	entries, err := h.Service.ListJournalEntries(r.Context(), user)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) HandleGetJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	entry, err := h.Service.GetJournalEntry(r.Context(), user, r.PathValue("entryID"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, entry)
}

func (h *Handler) HandleUpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req journalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	entry, err := h.Service.UpdateJournalEntry(r.Context(), user, r.PathValue("entryID"), req.toParams())
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, entry)
}

func (h *Handler) HandleDeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteJournalEntry(r.Context(), user, r.PathValue("entryID")); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true})
}
