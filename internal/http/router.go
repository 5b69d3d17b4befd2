package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalyonekenobe/funders-sub000/internal/handlers"
	"github.com/kalyonekenobe/funders-sub000/internal/middleware"
)

// NewRouter wires all API routes. Mutating media endpoints require auth and
// go through the upload rate limiter; reads are public.
func NewRouter(
	postHandler *handlers.PostHandler,
	commentHandler *handlers.PostCommentHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.SecurityHeaders)
	api.Use(middleware.RequestLogging)
	api.Use(middleware.GzipCompression)

	// Public reads
	api.HandleFunc("/posts", postHandler.ListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", postHandler.GetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/comments", commentHandler.ListComments).Methods(http.MethodGet)

	// Authenticated writes
	writes := api.NewRoute().Subrouter()
	writes.Use(authMiddleware.RequireAuth)
	writes.Use(middleware.UploadRateLimiter.Middleware)

	writes.HandleFunc("/posts", postHandler.CreatePost).Methods(http.MethodPost)
	writes.HandleFunc("/posts/{id}", postHandler.UpdatePost).Methods(http.MethodPut)
	writes.HandleFunc("/posts/{id}", postHandler.DeletePost).Methods(http.MethodDelete)
	writes.HandleFunc("/posts/{id}/comments", commentHandler.CreateComment).Methods(http.MethodPost)
	writes.HandleFunc("/comments/{id}", commentHandler.UpdateComment).Methods(http.MethodPut)
	writes.HandleFunc("/comments/{id}", commentHandler.DeleteComment).Methods(http.MethodDelete)

	return router
}
