// Package server exposes forgemap workspaces over HTTP.
//
// A workspace is one exploration: a headless graph and the explorer that
// keeps it consistent. Clients create a workspace, drive it with search,
// expand, select and toolbar requests, and read back the graph as JSON or
// SVG. Workspaces live in memory and expire after a period of inactivity.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/share"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
)

// Options configures a Server.
type Options struct {
	Forge          explore.Forge
	Logger         *log.Logger
	ShareBaseURL   string
	AllowedOrigins []string
	WorkspaceTTL   time.Duration

	// MaxRestoreIDs caps the ids accepted from a shared link. Zero means
	// DefaultMaxRestoreIDs.
	MaxRestoreIDs int

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// DefaultMaxRestoreIDs is the shared-link id cap when none is configured.
const DefaultMaxRestoreIDs = 100

// Server routes HTTP requests to workspaces.
type Server struct {
	forge      explore.Forge
	logger     *log.Logger
	store      *Store
	metrics    http.Handler
	origins    []string
	maxRestore int
	router     chi.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.MaxRestoreIDs <= 0 {
		opts.MaxRestoreIDs = DefaultMaxRestoreIDs
	}
	s := &Server{
		forge:      opts.Forge,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		origins:    opts.AllowedOrigins,
		maxRestore: opts.MaxRestoreIDs,
		store: NewStore(StoreOptions{
			Forge:        opts.Forge,
			ShareBaseURL: opts.ShareBaseURL,
			TTL:          opts.WorkspaceTTL,
			Logger:       opts.Logger,
		}),
	}
	s.router = s.routes()
	return s
}

// Store returns the workspace store.
func (s *Server) Store() *Store { return s.store }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/topics", s.listTopics)
	r.Get(share.RestorePath, s.restore)

	r.Route("/workspaces", func(r chi.Router) {
		r.Post("/", s.createWorkspace)
		r.Route("/{workspace}", func(r chi.Router) {
			r.Use(s.withWorkspace)
			r.Get("/", s.getWorkspace)
			r.Delete("/", s.deleteWorkspace)
			r.Get("/graph", s.getGraph)
			r.Get("/graph.svg", s.getGraphSVG)
			r.Get("/panel", s.getPanel)
			r.Get("/share", s.getShare)
			r.Get("/topics", s.getTopics)
			r.Post("/search", s.search)
			r.Post("/topic", s.topic)
			r.Post("/topics", s.browseTopics)
			r.Put("/selection", s.setSelection)
			r.Put("/repulsion", s.setRepulsion)
			r.Post("/actions/{action}", s.action)
			r.Route("/nodes/{node}", func(r chi.Router) {
				r.Use(validNode)
				r.Post("/expand", s.expand)
				r.Post("/forks", s.expandForks)
				r.Post("/select", s.selectNode)
				r.Post("/doubleclick", s.doubleClick)
			})
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully
// and stops every workspace.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.store.RunJanitor(ctx, janitorInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.store.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.store.Close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
