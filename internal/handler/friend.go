package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/auth"
	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/service"
)

// FriendHandler serves the friend-ledger endpoints. Every route here sits
// behind RequireAuth; the handler resolves the caller's profile once and
// passes its ID down to the service.
type FriendHandler struct {
	friends  *service.FriendService
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewFriendHandler creates a FriendHandler.
func NewFriendHandler(friends *service.FriendService, profiles *service.ProfileService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{
		friends:  friends,
		profiles: profiles,
		logger:   logger,
	}
}

type friendRequest struct {
	Name     string     `json:"name"`
	Birthday model.Date `json:"birthday"`
}

// HandleList returns the caller's full friend list.
//
// HTTP: GET /api/friends
func (h *FriendHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	friends, err := h.friends.List(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// HandleGrouped returns the list bucketed into today/tomorrow/other — the
// payload behind the main friend-list page.
//
// HTTP: GET /api/friends/grouped
func (h *FriendHandler) HandleGrouped(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	grouped, err := h.friends.Grouped(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// HandleToday returns only the friends whose birthday is today.
//
// HTTP: GET /api/friends/today
func (h *FriendHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	friends, err := h.friends.Today(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// HandleCreate adds a friend.
//
// HTTP: POST /api/friends
// BODY: {"name": "Ann", "birthday": "1990-05-01"}
func (h *FriendHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	var req friendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	friend, err := h.friends.Add(r.Context(), profile.ID, req.Name, req.Birthday)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, friend)
}

// HandleUpdate edits a friend's name and/or birthday.
//
// HTTP: PUT /api/friends/{id}
func (h *FriendHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	var req friendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	friend, err := h.friends.Update(r.Context(), profile.ID, chi.URLParam(r, "id"), req.Name, req.Birthday)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friend)
}

// HandleDelete removes a friend.
//
// HTTP: DELETE /api/friends/{id}
func (h *FriendHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}

	if err := h.friends.Delete(r.Context(), profile.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerProfile resolves the authenticated user's profile, writing the
// error response itself on failure. The bool tells the caller whether to
// continue.
func (h *FriendHandler) callerProfile(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return nil, false
	}

	profile, err := h.profiles.GetByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return profile, true
}
