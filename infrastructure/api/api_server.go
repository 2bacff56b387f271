package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fundsight/fundsight"
	apimiddleware "github.com/fundsight/fundsight/infrastructure/api/middleware"
	"github.com/fundsight/fundsight/internal/log"
)

// APIServer provides an HTTP API backed by a fundsight Client.
type APIServer struct {
	client *fundsight.Client
	server *Server
	router chi.Router
	logger *log.Logger
}

// NewAPIServer creates a new APIServer wired to the given fundsight Client.
func NewAPIServer(client *fundsight.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
	}
}

// mountRoutes wires up all API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(chimiddleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.client.Config().CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.Use(apimiddleware.Logging(a.logger))

	documentsRouter := NewDocumentsRouter(a.client)
	fundsRouter := NewFundsRouter(a.client)
	chatRouter := NewChatRouter(a.client)
	metricsRouter := NewMetricsRouter(a.client)

	router.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/documents", documentsRouter.Routes())
		r.Mount("/funds", fundsRouter.Routes())
		r.Mount("/chat", chatRouter.Routes())
		r.Mount("/metrics", metricsRouter.Routes())
	})

	router.Get("/", a.root)
	router.Get("/health", a.health)
}

// root handles GET /.
func (a *APIServer) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Fund Performance Analysis System API",
		"version": fundsight.Version,
	})
}

// health handles GET /health.
func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server
	a.mountRoutes(server.Router())
	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom
// servers and tests.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.router = chi.NewRouter()
		a.mountRoutes(a.router)
	}
	return a.router
}
