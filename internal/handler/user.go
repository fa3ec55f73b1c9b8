package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

type accountResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// SignUp handles POST /auth/register
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusOK, msgBadBody)
		return
	}

	user, err := h.svc.Users.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, accountResponse{UserID: user.ID, Username: user.Username})
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusOK, msgBadBody)
		return
	}

	session, err := h.svc.Users.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, session)
}

// Profile handles GET /api/user/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.svc.Users.Profile(r.Context(), userID, queryInt(r, "skip", 0), queryInt(r, "take", 0))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if profile.RegisteredEvents == nil {
		profile.RegisteredEvents = []model.EventSummary{}
	}
	writeData(w, profile)
}

// UserEvents handles GET /api/user/events?skip=&take=
func (h *Handler) UserEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.svc.Catalog.ListEventsForUser(r.Context(), userID, queryInt(r, "skip", 0), queryInt(r, "take", 0))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if events == nil {
		events = []model.EventSummary{}
	}
	writeData(w, events)
}

// UserStats handles GET /api/user/stats
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	stats, err := h.svc.Users.Stats(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, stats)
}
