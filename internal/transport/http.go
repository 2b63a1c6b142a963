package transport

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/rpggio/padron/internal/observability"
)

// Config wires the HTTP surface.
type Config struct {
	// MCP serves the streamable MCP endpoint.
	MCP     http.Handler
	Metrics *observability.Metrics
	// RateLimit is the number of /mcp requests per minute per caller; zero disables it.
	RateLimit   int
	ActorHeader string
	// Ready reports whether backing stores are reachable.
	Ready  func(context.Context) error
	Logger *slog.Logger
}

// NewRouter creates the HTTP router with middleware.
func NewRouter(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))

	r.Get("/health", healthHandler(cfg.Ready))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.Metrics != nil {
			r.Use(cfg.Metrics.Middleware("/mcp"))
		}
		r.Use(ActorMiddleware(cfg.ActorHeader))
		if cfg.RateLimit > 0 {
			r.Use(httprate.Limit(cfg.RateLimit, time.Minute,
				httprate.WithKeyFuncs(rateKey),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
				}),
			))
		}
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	})

	return r
}

// rateKey buckets requests by actor when one is sent, by client IP otherwise.
func rateKey(r *http.Request) (string, error) {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + actor, nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr, nil
	}
	return "ip:" + host, nil
}

func healthHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "unavailable", Error: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, healthBody{Status: "ok"})
	}
}
