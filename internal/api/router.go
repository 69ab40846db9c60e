// Package api serves the relationship operations over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mroshb/moodgram/internal/middleware"
	"github.com/rs/cors"
)

type RouterConfig struct {
	Handler        *Handler
	Limiter        *middleware.RateLimiter
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter wires routes and middleware. Everything under /v1 except
// registration requires a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(withIPRateLimit(cfg.Limiter))
	v1.HandleFunc("/users", h.Register).Methods("POST")

	authed := v1.NewRoute().Subrouter()
	authed.Use(withAuth(cfg.JWTSecret, cfg.Limiter))
	authed.HandleFunc("/me", h.Me).Methods("GET")
	authed.HandleFunc("/me/privacy", h.SetPrivacy).Methods("PUT")
	authed.HandleFunc("/me/requests", h.PendingRequests).Methods("GET")
	authed.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	authed.HandleFunc("/users/{id}/followers", h.Followers).Methods("GET")
	authed.HandleFunc("/users/{id}/following", h.Following).Methods("GET")
	authed.HandleFunc("/relationships/{targetID}", h.Act).Methods("POST")
	authed.HandleFunc("/relationships/{targetID}", h.GetRelationship).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}).Handler(r)

	return withRequestID(withAccessLog(corsHandler))
}
