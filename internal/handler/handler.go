// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
//
// Every response is a {success, data|message} envelope. Business outcomes,
// failures included, are sent with status 200; only credential problems
// use 401.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/auth"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

const (
	msgBadBody  = "invalid request body"
	msgBusy     = "service busy, please retry"
	msgInternal = "internal server error"
)

type RegistrationService interface {
	RegisterForEvent(ctx context.Context, eventID, userID int64) (*model.Registration, error)
	CancelRegistration(ctx context.Context, eventID, userID int64) (*model.Registration, error)
}

type ReviewService interface {
	SubmitReview(ctx context.Context, eventID, userID int64, rating int, comment *string) (*model.Review, error)
	GetReviewsForEvent(ctx context.Context, eventID int64) ([]model.ReviewView, error)
}

type CatalogService interface {
	ListEvents(ctx context.Context, search string, skip, take int) ([]model.EventSummary, error)
	ListEventsForUser(ctx context.Context, userID int64, skip, take int) ([]model.EventSummary, error)
	GetEvent(ctx context.Context, id int64) (*model.EventSummary, error)
}

type EventService interface {
	CreateEvent(ctx context.Context, creatorID int64, req model.CreateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, eventID, requesterID int64) error
}

type UserService interface {
	Register(ctx context.Context, req model.CredentialsRequest) (*model.User, error)
	Login(ctx context.Context, req model.CredentialsRequest) (*model.Session, error)
	Profile(ctx context.Context, userID int64, skip, take int) (*model.Profile, error)
	Stats(ctx context.Context, userID int64) (model.UserStats, error)
}

// Services groups the handler dependencies.
type Services struct {
	Registrations RegistrationService
	Reviews       ReviewService
	Catalog       CatalogService
	Events        EventService
	Users         UserService
}

// Handler holds all HTTP handlers for the API.
type Handler struct {
	svc Services
	log *zap.Logger

	// exposeErrors appends internal error text to the generic message.
	exposeErrors bool
}

// New constructs a Handler.
func New(svc Services, log *zap.Logger, exposeErrors bool) *Handler {
	return &Handler{svc: svc, log: log, exposeErrors: exposeErrors}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, model.DataResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Success: false, Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeOptionalJSON is decodeJSON for bodies that may be left out.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := decodeJSON(r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// fail renders err as an envelope, choosing the message by error kind.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if sentinel, ok := model.BusinessError(err); ok {
		writeError(w, http.StatusOK, sentinel.Error())
		return
	}

	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusOK, err.Error())
	case errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrInvalidToken),
		errors.Is(err, model.ErrUnauthorized):
		writeUnauthorized(w, err)
	case errors.Is(err, model.ErrTransientConflict):
		h.log.Warn("request gave up on store contention",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusOK, msgBusy)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		msg := msgInternal
		if h.exposeErrors {
			msg += ": " + err.Error()
		}
		writeError(w, http.StatusOK, msg)
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := model.ErrUnauthorized.Error()
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		msg = model.ErrTokenExpired.Error()
	case errors.Is(err, model.ErrInvalidToken):
		msg = model.ErrInvalidToken.Error()
	}
	writeError(w, http.StatusUnauthorized, msg)
}

// actingUser resolves the user a request acts for. A userId in the body is
// optional but must match the authenticated caller.
func actingUser(ctx context.Context, bodyUserID int64) (int64, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return 0, model.ErrUnauthorized
	}
	if bodyUserID != 0 && bodyUserID != id.UserID {
		return 0, model.ErrForbidden
	}
	return id.UserID, nil
}

func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id, err == nil && id > 0
}

// queryInt returns the integer query parameter, or def when it is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
