package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/shophub/storefront/internal/config"
	handler "github.com/shophub/storefront/internal/handler/http"
	"github.com/shophub/storefront/internal/storeapi"
	"github.com/shophub/storefront/internal/storefront"
	"github.com/shophub/storefront/pkg/health"
	"github.com/shophub/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	storefront     *storefront.Storefront
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance: tracer, shoe API client,
// storefront controller and HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, serviceName, cfg.Environment, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	client, err := storeapi.New(cfg.StoreAPI(), logger)
	if err != nil {
		return nil, fmt.Errorf("create shoe API client: %w", err)
	}

	sf := storefront.New(client, logger)

	// The backend must answer HTTP for the service to be ready; an open
	// breaker only degrades it.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("backend", client.Ping)
	healthHandler.RegisterNonCritical("breaker", func(ctx context.Context) error {
		if state := client.BreakerState(); state != gobreaker.StateClosed {
			return fmt.Errorf("circuit breaker is %s", state)
		}
		return nil
	})

	router := handler.NewRouter(sf, healthHandler, logger, handler.RouterConfig{
		ServiceName:       serviceName,
		CORS:              cfg.CORS(),
		MetricsAllowCIDRs: cfg.MetricsAllowedCIDRs,
		PprofAllowCIDRs:   cfg.PprofAllowedCIDRs,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		storefront:     sf,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the HTTP handler serving the storefront.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server, loads the catalog in the background and blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		s := a.storefront.Start(ctx)
		a.logger.Info("catalog loaded",
			slog.Int("products", len(s.Data)),
			slog.String("error", s.Err),
		)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server, then flushes pending spans.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
