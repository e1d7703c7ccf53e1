package rest

import (
	"encoding/json"
	"net/http"

	"github.com/vireoapp/vireo/service"
)

type habitRequest struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
}

func (h *Handler) HandleCreateHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	habit, err := h.Service.CreateHabit(r.Context(), user, service.HabitParams{
		Name:     req.Name,
		Schedule: req.Schedule,
	})
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusCreated, habit)
}

func (h *Handler) HandleListHabits(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	habits, err := h.Service.ListHabits(r.Context(), user)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]any{"habits": habits})
}

func (h *Handler) HandleArchiveHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.ArchiveHabit(r.Context(), user, r.PathValue("habitID")); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteHabit(r.Context(), user, r.PathValue("habitID")); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true})
}

type checkInRequest struct {
	Day  string `json:"day"`
	Note string `json:"note"`
}

func (h *Handler) HandleCheckInHabit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	checkIn, err := h.Service.CheckInHabit(r.Context(), user, r.PathValue("habitID"), req.Day, req.Note)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusCreated, checkIn)
}

func (h *Handler) HandleListHabitCheckIns(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	checkIns, err := h.Service.ListHabitCheckIns(r.Context(), user, r.PathValue("habitID"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]any{"checkins": checkIns})
}
