// Package server exposes the pipeline stages, persistence and artifact viewer
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/pipeline"
)

// shutdownTimeout bounds graceful shutdown after the serve context ends.
const shutdownTimeout = 30 * time.Second

// Stages is the pipeline surface the server drives. *pipeline.Pipeline
// satisfies it.
type Stages interface {
	Crawl(ctx context.Context, targetURL string) (*model.CrawlResult, error)
	Profile(ctx context.Context, inputPath string) (*model.ProfileResult, error)
	FindEvents(ctx context.Context, profilePath string) (*model.EventsResult, error)
	ExtractCompanies(ctx context.Context, eventsPath string) (*model.CompaniesResult, error)
	Prioritize(ctx context.Context, candidatesPath, profilePath string) (*model.PrioritizeResult, error)
	Outreach(ctx context.Context, record model.PrioritizedCustomer) (*model.OutreachResult, error)
	Run(ctx context.Context, targetURL string) (*model.RunReport, error)
}

// Server routes HTTP requests to the pipeline.
type Server struct {
	stages Stages
	loader pipeline.Loader
	viewer *artifact.Viewer
	cfg    config.ServerConfig
	router chi.Router
}

// New creates a Server. loader may be nil, in which case the store endpoints
// answer 503.
func New(cfg config.ServerConfig, stages Stages, loader pipeline.Loader, viewer *artifact.Viewer) *Server {
	s := &Server{
		stages: stages,
		loader: loader,
		viewer: viewer,
		cfg:    cfg,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))

		r.Post("/generate_knowledge_base", s.handleCrawl)
		r.Post("/process_knowledge_base", s.handleProfile)
		r.Post("/find_potential_events", s.handleEvents)
		r.Post("/extract_companies", s.handleCompanies)
		r.Post("/prioritize_companies", s.handlePrioritize)
		r.Post("/generate_outreach_email", s.handleOutreach)
		r.Post("/run", s.handleRun)

		r.Post("/store_events_in_db", s.handleStoreEvents)
		r.Post("/store_prioritized_companies_in_db", s.handleStoreCustomers)

		r.Get("/view_company_profile", s.handleView(artifact.CompanyProfile))
		r.Get("/view_potential_events", s.handleView(artifact.PotentialEvents))
		r.Get("/view_potential_customer", s.handleView(artifact.PotentialCustomer))
		r.Get("/view_prioritized_companies", s.handleView(artifact.PrioritizedCompanies))
		r.Get("/artifacts/{kind}", s.handleArtifact)
	})

	return r
}

// ListenAndServe serves on the configured port until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return eris.Wrapf(err, "server: listen on port %d", s.cfg.Port)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("server: listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server: serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		return nil
	})
	return g.Wait()
}
