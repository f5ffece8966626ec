// Package server assembles the reference backend: routes, middleware and the http.Server.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/handlers"
	"github.com/diewo77/backoffice/internal/logging"
	"github.com/diewo77/backoffice/internal/metrics"
)

// App is the root handler of the reference backend.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	logger  *zap.Logger
	metrics *metrics.Metrics
	limiter *limiter.Limiter
}

// NewApp mounts the REST resources of h plus /healthz and /metrics. An empty
// rate disables rate limiting.
func NewApp(h *handlers.Handler, rate string, logger *zap.Logger, m *metrics.Metrics) (*App, error) {
	a := &App{mux: http.NewServeMux(), logger: logging.OrNop(logger), metrics: m}
	if rate != "" {
		r, err := limiter.NewRateFromFormatted(rate)
		if err != nil {
			return nil, fmt.Errorf("rate limit %q: %w", rate, err)
		}
		a.limiter = limiter.New(memory.NewStore(), r)
	}
	h.Register(a.mux)
	a.mux.HandleFunc("GET /healthz", h.Health)
	if m != nil {
		a.mux.Handle("GET /metrics", m.Handler())
	}

	var next http.Handler = a.mux
	if a.limiter != nil {
		next = stdlib.NewMiddleware(a.limiter).Handler(next)
	}
	a.handler = withRequestID(a.withLogging(next))
	return a, nil
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// New builds the http.Server with the configured timeouts.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
}
