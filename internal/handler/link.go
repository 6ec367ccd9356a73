package handler

import (
	"log/slog"
	"net/http"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/auth"
	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/service"
)

// LinkHandler serves the account page's Telegram-linking panel: show the
// current code and linked status, mint a new code, detach the chat.
//
// The actual LINK operation is not here — linking happens from the bot
// side (/start <code>), because the code's whole point is to be carried
// from this page into the chat.
type LinkHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewLinkHandler creates a LinkHandler.
func NewLinkHandler(profiles *service.ProfileService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{profiles: profiles, logger: logger}
}

// linkStatusResponse is what the account page renders.
type linkStatusResponse struct {
	LinkCode string `json:"linkCode"`
	Linked   bool   `json:"linked"`
	ChatID   int64  `json:"chatId,omitempty"`
}

func statusOf(p *model.Profile) linkStatusResponse {
	return linkStatusResponse{
		LinkCode: p.LinkCode,
		Linked:   p.HasChat(),
		ChatID:   p.ChatID,
	}
}

// HandleStatus returns the caller's linking code and whether a chat is
// attached.
//
// HTTP: GET /api/link
func (h *LinkHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.callerProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusOf(profile))
}

// HandleRegenerateCode replaces the linking code. The old one stops
// working immediately.
//
// HTTP: POST /api/link/code
func (h *LinkHandler) HandleRegenerateCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	profile, err := h.profiles.RegenerateCode(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(profile))
}

// HandleUnlink detaches the chat identity from the caller's profile.
//
// HTTP: DELETE /api/link
func (h *LinkHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	profile, err := h.profiles.DetachChat(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(profile))
}

func (h *LinkHandler) callerProfile(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
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
