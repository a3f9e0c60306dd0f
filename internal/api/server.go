package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/folio/internal/app"
)

// Server is the HTTP API server for folio.
type Server struct {
	router   chi.Router
	app      *app.App
	log      *slog.Logger
	sessions *sessions
	cancel   context.CancelFunc
}

// NewServer creates and configures the HTTP server.
func NewServer(a *app.App, log *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:      a,
		log:      log,
		sessions: newSessions(ctx, a),
		cancel:   cancel,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close closes every open document and cancels pending uploads.
func (s *Server) Close() {
	s.cancel()
	s.sessions.closeAll()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get(app.BlobPrefix+"{name}", s.handleBlob)

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handleCreateDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/html", s.handleHTML)
			r.Get("/markdown", s.handleMarkdown)
			r.Get("/metrics", s.handleMetrics)
			r.Post("/commands/{command}", s.handleCommand)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
