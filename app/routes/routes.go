package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"cloudcanvas/app/controllers"
	"cloudcanvas/app/log"
	"cloudcanvas/app/middleware"
	"cloudcanvas/app/views"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options are the extras of the router beyond the controllers' dependencies.
type Options struct {
	// Gatherer backs /metrics. Nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps controllers.Dependencies, opts Options) *mux.Router {
	logger := log.OrNop(deps.Logger)

	router := mux.NewRouter()
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))

	postController := controllers.NewPostController(deps)
	commentController := controllers.NewCommentController(deps)

	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(views.Static())))
	router.HandleFunc("/health", health).Methods(http.MethodGet)
	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Web routes
	router.HandleFunc("/", postController.Index).Methods(http.MethodGet)
	router.HandleFunc("/create", postController.Form).Methods(http.MethodGet)
	router.HandleFunc("/create", postController.Submit).Methods(http.MethodPost)
	router.HandleFunc("/edit/{id}", postController.Form).Methods(http.MethodGet)
	router.HandleFunc("/edit/{id}", postController.Submit).Methods(http.MethodPost)

	post := router.PathPrefix("/post/{id}").Subrouter()
	post.HandleFunc("", postController.Show).Methods(http.MethodGet)
	post.HandleFunc("/upvote", postController.Upvote).Methods(http.MethodPost)
	post.HandleFunc("/delete", postController.Delete).Methods(http.MethodPost)
	post.HandleFunc("/comments", commentController.Create).Methods(http.MethodPost)
	post.HandleFunc("/comments/{commentId}/edit", commentController.Edit).Methods(http.MethodPost)
	post.HandleFunc("/comments/{commentId}/delete", commentController.Delete).Methods(http.MethodPost)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	api.HandleFunc("/posts", postController.Index).Methods(http.MethodGet)
	api.HandleFunc("/posts", postController.Create).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", postController.Show).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", postController.Update).Methods(http.MethodPut)
	api.HandleFunc("/posts/{id}", postController.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/upvote", postController.Upvote).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments", commentController.Index).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/comments", commentController.Create).Methods(http.MethodPost)
	api.HandleFunc("/comments/{commentId}", commentController.Edit).Methods(http.MethodPut)
	api.HandleFunc("/comments/{commentId}", commentController.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/preview", postController.Preview).Methods(http.MethodGet)

	router.NotFoundHandler = middleware.Logger(logger)(notFound(deps.Views))

	return router
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// notFound answers JSON under /api and the message page elsewhere.
func notFound(pages *views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api") || r.Header.Get("Accept") == "application/json" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		if pages == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		pages.Render(w, "message", map[string]string{"Message": "Page not found"})
	}
}
