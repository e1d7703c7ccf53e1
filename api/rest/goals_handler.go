package rest

import (
	"encoding/json"
	"net/http"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
)

type goalRequest struct {
	Title    string `json:"title"`
	Target   int    `json:"target"`
	Progress int    `json:"progress"`
	DueDay   string `json:"dueDay"`
}

func (r goalRequest) toParams() service.GoalParams {
	return service.GoalParams{
		Title:    r.Title,
		Target:   r.Target,
		Progress: r.Progress,
		DueDay:   r.DueDay,
	}
}

func (h *Handler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	goal, err := h.Service.CreateGoal(r.Context(), user, req.toParams())
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusCreated, goal)
}

func (h *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	goals, err := h.Service.ListGoals(r.Context(), user)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]any{"goals": goals})
}

func (h *Handler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	goal, err := h.Service.GetGoal(r.Context(), user, r.PathValue("goalID"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, goal)
}

func (h *Handler) HandleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	goal, err := h.Service.UpdateGoal(r.Context(), user, r.PathValue("goalID"), req.toParams())
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, goal)
}

func (h *Handler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteGoal(r.Context(), user, r.PathValue("goalID")); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.GetStats(r.Context(), user, models.StatsKind(r.PathValue("kind")))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, http.StatusOK, stats)
}
