package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig carries what the router needs beyond the handlers.
type RouterConfig struct {
	Verifier       TokenVerifier
	Log            *zap.Logger
	AllowedOrigins []string
}

// NewRouter builds the middleware chain and routes:
// request id → real ip → access log → recover → cors, then
// authenticate → authorize → handle for everything under /api.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(cfg.Log))
	r.Use(Recoverer(cfg.Log))
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.SignUp)
		r.Post("/login", h.Login)
	})
	// Paths used by the existing web client.
	r.Post("/register", h.SignUp)
	r.Post("/login", h.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Post("/register", h.Register)
			r.Post("/reviews", h.SubmitReview)
			r.Get("/{id}", h.GetEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Get("/{id}/reviews", h.ListReviews)
			r.Delete("/{id}/cancel", h.Cancel)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", h.Profile)
			r.Get("/events", h.UserEvents)
			r.Get("/stats", h.UserStats)
		})
	})

	return r
}
