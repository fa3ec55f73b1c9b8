package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// ListEvents handles GET /api/events?name=&skip=&take=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Catalog.ListEvents(r.Context(),
		r.URL.Query().Get("name"),
		queryInt(r, "skip", 0),
		queryInt(r, "take", 0),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if events == nil {
		events = []model.EventSummary{}
	}
	writeData(w, events)
}

// GetEvent handles GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, model.ErrEventNotFound)
		return
	}

	event, err := h.svc.Catalog.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, event)
}

// CreateEvent handles POST /api/events
// The caller becomes the event's creator.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusOK, msgBadBody)
		return
	}

	event, err := h.svc.Events.CreateEvent(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, event)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, model.ErrEventNotFound)
		return
	}
	userID, err := actingUser(r.Context(), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.Events.DeleteEvent(r.Context(), id, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, nil)
}

// Register handles POST /api/events/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusOK, msgBadBody)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := actingUser(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reg, err := h.svc.Registrations.RegisterForEvent(r.Context(), req.EventID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, reg)
}

// Cancel handles DELETE /api/events/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, model.ErrNotRegistered)
		return
	}

	var req model.CancelRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusOK, msgBadBody)
		return
	}
	userID, err := actingUser(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.svc.Registrations.CancelRegistration(r.Context(), id, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, nil)
}

// ListReviews handles GET /api/events/{id}/reviews
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, model.ErrEventNotFound)
		return
	}

	reviews, err := h.svc.Reviews.GetReviewsForEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []model.ReviewView{}
	}
	writeData(w, reviews)
}

// SubmitReview handles POST /api/events/reviews
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusOK, msgBadBody)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := actingUser(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	review, err := h.svc.Reviews.SubmitReview(r.Context(), req.EventID, userID, req.IntRating(), req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, review)
}
