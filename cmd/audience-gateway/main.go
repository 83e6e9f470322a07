// Command audience-gateway serves the audience member API in front of the
// marketing platform.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/audience-gateway/internal/adapters/clients/marketing"
	"github.com/jsamuelsen/audience-gateway/internal/adapters/http"
	"github.com/jsamuelsen/audience-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/audience-gateway/internal/app"
	"github.com/jsamuelsen/audience-gateway/internal/platform/config"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
	"github.com/jsamuelsen/audience-gateway/internal/platform/telemetry"
	"github.com/jsamuelsen/audience-gateway/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// basicAuthUser is sent alongside the API key; the marketing API ignores it.
const basicAuthUser = "audience-gateway"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(os.Getenv("APP_ENVIRONMENT"))
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		// ctx is already canceled here
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	directory, err := newMemberClient(&cfg.Marketing, &cfg.Client, logger)
	if err != nil {
		return err
	}

	readiness := ports.NewHealthRegistry(ports.WithCheckTimeout(cfg.Client.Timeout))
	if err := readiness.Register(directory); err != nil {
		return fmt.Errorf("registering readiness check: %w", err)
	}

	members := app.NewMemberService(app.MemberServiceConfig{Directory: directory, Logger: logger})

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.NewRoutes(
		logger,
		cfg.App.Name,
		handlers.NewHealthHandler(handlers.HealthHandlerConfig{
			Registry:  readiness,
			BuildInfo: handlers.NewBuildInfo(cfg.App.Name, Version, Commit, BuildTime),
			Gatherer:  prometheus.DefaultGatherer,
		}),
		handlers.NewMemberHandler(members),
	))

	return serve(ctx, logger, server, &cfg.Server)
}

// loadConfig reads the profile's configuration and fails fast when invalid.
// An empty profile means local.
func loadConfig(profile string) (*config.Config, error) {
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	f := cfg.Log.File

	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    f.Enabled,
			Path:       f.Path,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		},
	})
}

// newMemberClient builds the marketing API adapter. An explicit base URL
// overrides the data center encoded in the API key.
func newMemberClient(mc *config.MarketingConfig, cc *config.ClientConfig, logger *slog.Logger) (*marketing.MemberClient, error) {
	creds, err := marketing.ParseAPIKey(mc.APIKey)
	if err != nil {
		return nil, fmt.Errorf("parsing marketing API key: %w", err)
	}

	algorithm, err := marketing.ParseAlgorithm(mc.HashAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("configuring subscriber hash: %w", err)
	}

	baseURL := mc.BaseURL
	if baseURL == "" {
		baseURL = creds.BaseURL()
	}

	hc, err := clients.New(&clients.Config{
		BaseURL:     baseURL,
		ServiceName: mc.Name,
		Timeout:     cc.Timeout,
		Retry:       cc.Retry,
		Circuit:     cc.CircuitBreaker,
		Transport:   cc.Transport,
		AuthFunc:    clients.BasicAuth(basicAuthUser, creds.Key),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating marketing HTTP client: %w", err)
	}

	logger.Info("marketing API configured",
		slog.String("base_url", baseURL),
		slog.String("data_center", creds.DataCenter),
		slog.String("hash_algorithm", algorithm.String()),
	)

	return marketing.NewMemberClient(marketing.MemberClientConfig{
		Client:    hc,
		Algorithm: algorithm,
		Metrics:   marketing.NewMetrics(prometheus.DefaultRegisterer),
		Logger:    logger,
	}), nil
}

// serve runs server until ctx is canceled or serving fails, then drains
// in-flight requests for at most ShutdownTimeout.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server, cfg *config.ServerConfig) error {
	serveErr := server.Start()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return errors.New("server stopped unexpectedly")
	case <-ctx.Done():
		logger.Info("shutdown signal received", slog.Duration("timeout", cfg.ShutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
