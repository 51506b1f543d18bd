package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"edudash/internal/config"
	"edudash/internal/datasets"
	apierrors "edudash/internal/errors"
	"edudash/internal/infrastructure"
	customMiddleware "edudash/internal/middleware"
	"edudash/internal/services"
	"edudash/internal/session"
	handlers "edudash/internal/transport/http"
	"edudash/internal/validation"
	ws "edudash/internal/websocket"
	"edudash/pkg/contracts"
)

const AppName = "教育数据仪表盘"

// Application holds every long-lived component of the dashboard server.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Validate      *validator.Validate

	Catalog       *datasets.Catalog
	WebSocketHub  *ws.Hub
	DataService   *services.DataService
	HealthService *services.HealthService
}

// NewApplication loads the configuration and logger and builds the application
// against the configured data source.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	source, err := datasets.NewSource(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	if cfg.Data.Source == config.SourceFile {
		files := datasets.RequiredFiles(cfg.Data.GeoJSONFile)
		if err := validation.NewFileValidator(logger).ValidateDataDir(cfg.Data.Dir, files); err != nil {
			logger.Warn("Data files incomplete, affected views will report load errors",
				slog.String("error", err.Error()))
		}
	}

	return New(cfg, logger, source)
}

// New wires the application from explicit dependencies.
func New(cfg *config.Config, logger *slog.Logger, source datasets.Source) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("data_source", cfg.Data.Source))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Validate:      validator.New(),
	}

	if err := app.initializeServices(source); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices(source datasets.Source) error {
	loader := datasets.NewLoader(source, a.OTelProviders.Tracer, a.Metrics, a.Logger)
	a.Catalog = datasets.NewCatalog(loader, a.Config.Data.GeoJSONFile, a.Logger)

	hubMetrics, err := ws.NewMetrics(a.OTelProviders.Registry)
	if err != nil {
		return fmt.Errorf("failed to register websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, hubMetrics)

	a.DataService = services.NewDataService(a.Catalog, a.WebSocketHub, a.Logger)
	a.HealthService = services.NewHealthService(
		contracts.Version,
		contracts.BuildTime,
		a.DataService,
		a.WebSocketHub,
		a.Logger,
	)
	return nil
}

// setupRouter builds the route tree. The websocket endpoint sits outside the
// full middleware group because timeouts and compression cannot wrap a
// hijacked connection.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(
		a.WebSocketHub,
		a.Config.WebSocket,
		a.Config.Security.AllowedOrigins,
		session.Deps{
			Data:     a.Catalog,
			Geo:      a.Catalog,
			Metrics:  a.Metrics,
			Validate: a.Validate,
			Logger:   a.Logger,
		},
		a.Logger,
	)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.Registry, a.WebSocketHub)
	r.Handle("/metrics", metricsHandler.Prometheus())

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Security → CORS → RateLimit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).OnReject(func(w http.ResponseWriter, req *http.Request, retryAfter int) {
				errorHandler.HandleError(w, req, apierrors.RateLimited(retryAfter))
			}).Handler)
		}

		a.setupAPIRoutes(r, errorHandler, metricsHandler)

		r.With(customMiddleware.Compress(5)).Handle("/*", handlers.StaticHandler(a.Config.Web.StaticDir))
	})

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler, metricsHandler *handlers.MetricsHandler) {

	r.Route("/api", func(r chi.Router) {
		r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)
			r.Post("/logs", handlers.NewClientLogHandler(a.Validate, a.Logger, errorHandler).Handle)
		})

		r.Mount("/metrics", metricsHandler.Routes())

		dataHandler := handlers.NewDataHandler(a.DataService, a.Validate, a.Logger, errorHandler)
		r.Mount("/", dataHandler.Routes())
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		// WriteTimeout stays zero: it would cut long-lived websocket
		// connections. API handlers are bounded by the Timeout middleware.
	}
}

// Start launches the hub, the optional preload and the listener. Listener
// failures are reported on the returned channel.
func (a *Application) Start(ctx context.Context) <-chan error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", a.Server.Addr),
		slog.String("static_dir", a.Config.Web.StaticDir),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	if a.Config.Data.Preload {
		go a.preload(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// preload warms the catalog so the first page does not wait on the source.
// Failures leave the readiness probe red; requests still retry the load.
func (a *Application) preload(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, 2*a.Config.Data.FetchTimeout+time.Second)
	defer cancel()

	if err := a.Catalog.LoadAll(loadCtx); err != nil {
		a.Logger.WarnContext(ctx, "Dataset preload failed", slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Datasets ready", slog.Int("datasets", len(a.Catalog.Info())))
}

// Stop drains HTTP, closes websocket clients and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until SIGINT/SIGTERM or a listener failure, then shuts down.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.Start(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case serveErr = <-errCh:
	}

	// Shutdown gets a fresh context; ctx is already cancelled here.
	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}
