package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/codepad/internal/api/http"
	"github.com/GriffinCanCode/codepad/internal/api/middleware"
	"github.com/GriffinCanCode/codepad/internal/api/ws"
	"github.com/GriffinCanCode/codepad/internal/domain/settings"
	"github.com/GriffinCanCode/codepad/internal/domain/templates"
	"github.com/GriffinCanCode/codepad/internal/domain/workspace"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/autosave"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/config"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/logging"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	workspace *workspace.Workspace
	store     store.Store
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
	registry  *prometheus.Registry
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing codepad server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("store", cfg.Store.Driver),
	)

	// Metrics first; the store guard and workspace report into them
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	st, err := OpenStore(cfg, metrics, logger.Component("store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	wspace, err := OpenWorkspace(ctx, cfg, st, metrics, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(wspace, metrics, logger.Component("api"))
	handlers.Register(router)

	stream := ws.NewHandler(wspace, metrics, logger.Component("stream"))
	router.GET("/stream", stream.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		workspace: wspace,
		store:     st,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
		registry:  registry,
	}, nil
}

// NewLogger builds the process logger from cfg.Logging
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
}

// OpenWorkspace loads templates and preferences and rehydrates the
// workspace from st
func OpenWorkspace(ctx context.Context, cfg *config.Config, st store.Store, metrics *monitoring.Metrics, logger *logging.Logger) (*workspace.Workspace, error) {
	reg, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	prefs, err := settings.LoadFile(cfg.Editor.SettingsFile, settings.Default())
	if err != nil {
		logger.Warn("Ignoring settings file", zap.String("path", cfg.Editor.SettingsFile), zap.Error(err))
		prefs = settings.Default()
	}

	w, err := workspace.Open(ctx, workspace.Options{
		Store: st,
		Autosave: autosave.Options{
			Delay:  cfg.Autosave.Delay,
			Delays: map[string]time.Duration{workspace.SlotActiveFile: cfg.Autosave.ActiveDelay},
		},
		Settings:  &prefs,
		Templates: reg,
		Metrics:   metrics,
		Logger:    logger.Component("workspace"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return w, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Workspace returns the served workspace
func (s *Server) Workspace() *workspace.Workspace {
	return s.workspace
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close flushes pending saves and releases the store
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.workspace.Close(ctx); err != nil {
		s.logger.Error("Failed to flush workspace", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to flush workspace: %w", err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}

	s.logger.Sync()
	return errors.Join(errs...)
}
