// internal/api/server.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quote-workers/internal/common/config"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/quote"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Probe is one readiness dependency, e.g. the Zeebe broker or Postgres.
type Probe func(ctx context.Context) error

// SubscriptionChecker refuses quotes for businesses without an active plan.
type SubscriptionChecker interface {
	Check(ctx context.Context, businessID string) error
}

// FormCache drops cached form definitions after the authoring side
// publishes a new version.
type FormCache interface {
	Invalidate(ctx context.Context, businessID, serviceID string) error
}

type Options struct {
	Config        config.HTTPConfig
	Service       *quote.Service
	Subscriptions SubscriptionChecker
	Forms         FormCache
	Probes        map[string]Probe
	Logger        logger.Logger
}

// Server is the quote HTTP API that merchant embeds call from the browser.
type Server struct {
	cfg     config.HTTPConfig
	service *quote.Service
	subs    SubscriptionChecker
	forms   FormCache
	probes  map[string]Probe
	logger  logger.Logger
	router  chi.Router
}

func NewServer(opts Options) *Server {
	s := &Server{
		cfg:     opts.Config,
		service: opts.Service,
		subs:    opts.Subscriptions,
		forms:   opts.Forms,
		probes:  opts.Probes,
		logger:  opts.Logger.WithFields(map[string]interface{}{"component": "http"}),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Browser-facing: merchant embeds call these cross-origin.
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.cfg.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
				ExposedHeaders:   []string{"X-Request-Id"},
				AllowCredentials: false,
				MaxAge:           300,
			}))
			if s.cfg.MaxBodyBytes > 0 {
				r.Use(middleware.RequestSize(s.cfg.MaxBodyBytes))
			}

			r.Post("/quotes/evaluate", s.handleEvaluate)
			r.Post("/forms/validate", s.handleValidateForm)
		})

		// Called server-to-server by the authoring side; no CORS.
		r.Delete("/forms/{businessId}/{serviceId}/cache", s.handleInvalidateForm)
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router,
		ReadTimeout:       config.GetDuration(s.cfg.ReadTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.GetDuration(s.cfg.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.cfg.ShutdownTimeout))
	defer cancel()
	s.logger.Info("shutting down http server", nil)
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			return
		}
		s.logger.Info("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}
