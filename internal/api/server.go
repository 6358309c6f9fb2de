// Package api serves recommendations, negative review analysis, keyword
// profiles and dataset statistics over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/negative"
	"github.com/cognicore/revlens/pkg/revlens/profile"
	"github.com/cognicore/revlens/pkg/revlens/rank"
	"github.com/cognicore/revlens/pkg/revlens/store"
)

// Engine is the analytics surface the handlers call.
type Engine interface {
	Recommend(ctx context.Context, customerID int64, topN int, excludePurchased bool) ([]rank.Recommendation, error)
	BuildCustomerProfile(ctx context.Context, customerID int64) (profile.KeywordProfile, error)
	ProductProfile(ctx context.Context, productID int64) (profile.KeywordProfile, bool, error)
	ImprovementPriority(ctx context.Context, topN int) ([]negative.PriorityRecord, error)
	Overview(ctx context.Context) (store.Overview, error)
}

// Options tunes the server.
type Options struct {
	RequestTimeout time.Duration // per request, default 30s
	Now            func() time.Time
}

// Server holds the handlers' dependencies.
type Server struct {
	engine  Engine
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewServer creates a server around an engine.
func NewServer(e Engine, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		engine:  e,
		timeout: opts.RequestTimeout,
		now:     opts.Now,
		log:     logging.Component("api"),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommend/{customer_id}", s.handleRecommend)
		r.Get("/negative-analysis", s.handleNegativeAnalysis)
		r.Get("/product/{product_id}/profile", s.handleProductProfile)
		r.Get("/customer/{customer_id}/profile", s.handleCustomerProfile)
		r.Get("/stats/overview", s.handleOverview)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})
	return r
}

// observe records request duration by route pattern and logs each request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.ObserveAPIRequest(route, status, elapsed)
		s.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
