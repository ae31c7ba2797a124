package application

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkarpov/dataserve/internal/api"
	"github.com/mkarpov/dataserve/internal/config"
	"github.com/mkarpov/dataserve/internal/logging"
	"github.com/mkarpov/dataserve/internal/serializer"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	manager *config.Manager
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New wires the handlers and HTTP server from the manager's active settings.
// A successful reload through the API retunes the logger level via the
// provided atomic level.
func New(manager *config.Manager, logger *zap.Logger, level zap.AtomicLevel) *App {
	settings := manager.Active()

	encoder := serializer.NewRegistry()
	handler := api.NewHandler(manager, encoder, api.WithReloadHook(func(s *config.Settings) {
		if parsed, err := logging.ParseLevel(s.LoggingLevel); err == nil {
			level.SetLevel(parsed)
		}
	}))
	router := api.NewRouter(handler, logger,
		api.WithLogging(settings.RequestLogging),
		api.WithRateLimit(settings),
	)

	return &App{
		manager: manager,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(settings, router),
	}
}

// NewServer creates and configures an HTTP server from the provided settings.
// Binding fields (host, port, timeouts) take effect at startup only; a reload
// does not rebind a running server.
func NewServer(settings *config.Settings, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              settings.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: settings.ReadHeaderTimeout,
		WriteTimeout:      settings.WriteTimeout,
		IdleTimeout:       settings.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("environment", a.manager.Active().Environment),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
