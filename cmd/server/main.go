package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/mkarpov/dataserve/internal/application"
	"github.com/mkarpov/dataserve/internal/config"
	"github.com/mkarpov/dataserve/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("dataserve", "Profile-configured demo service serving JSON-encoded numeric and tabular data")
	profilesFile := kingpinApp.Flag("profiles", "Path to the profile file (TOML or YAML)").Default("config/profiles.toml").String()
	profileName := kingpinApp.Flag("profile", "Profile to activate (overrides APP_PROFILE)").String()
	host := kingpinApp.Flag("host", "Host interface to bind (overrides profile and APP_HOST)").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Logging level: DEBUG, INFO, WARNING, ERROR, or CRITICAL").String()
	debug := kingpinApp.Flag("debug", "Enable debug mode").Bool()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.Overrides{
		Profile: *profileName,
	}

	if *host != "" {
		overrides.Host = host
	}

	if *port != "" {
		overrides.Port = port
	}

	if *logLevel != "" {
		overrides.LoggingLevel = logLevel
	}

	if *debug {
		overrides.Debug = debug
	}

	loader := &config.Loader{
		ProfilePath: *profilesFile,
		Overrides:   overrides,
	}

	manager, err := config.NewManager(loader)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	settings := manager.Active()

	logger, level, err := logging.New(settings.LoggingLevel, settings.Debug)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app := application.New(manager, logger, level)

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), settings.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
