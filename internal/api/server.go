// Package api serves product filtering over HTTP.
//
// Routes:
//
//	GET  /api/healthcheck          store reachability
//	POST /api/products/filter      run an operation list, return elements
//	POST /api/products/explain     show the resolved pipeline (and SQL)
//
// With a ResultCache attached, filter results are cached by resolved
// pipeline and the X-Cache response header reports hit or miss.
//
// Request bodies are the JSON operation lists accepted by
// operation.Parse. Every filter error is a client error: errors naming a
// field are reported as 422 with per-field messages, the rest as 400.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/roach88/dynfilter/internal/operation"
)

// Products runs pipelines over the product catalog. *store.Store and
// *catalog.InMemory implement it.
type Products interface {
	FindProducts(ctx context.Context, p *operation.Pipeline) ([]any, error)
	Ping(ctx context.Context) error
}

// ResultCache stores encoded filter results. *cache.Redis implements it.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type server struct {
	cfg      Config
	logger   *slog.Logger
	products Products
	cache    ResultCache
}

func NewServer(cfg Config, logger *slog.Logger, products Products) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if products == nil {
		return nil, errors.New("api product source is required")
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		products: products,
	}, nil
}

// UseCache attaches a result cache to the filter route.
func (s *server) UseCache(c ResultCache) {
	s.cache = c
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("POST /api/products/filter", s.filterProductsHandler)
	mux.HandleFunc("POST /api/products/explain", s.explainProductsHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux)))
}

// Handler returns the routed handler with middleware applied.
func (s *server) Handler() http.Handler {
	return s.routes()
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && !errors.Is(serverErr, http.ErrServerClosed) {
		return serverErr
	}

	return nil
}
