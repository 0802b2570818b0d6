package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nevloh/nevloh-website-sub001/cmd/mainconfig"
	"github.com/nevloh/nevloh-website-sub001/internal/api/router"
	"github.com/nevloh/nevloh-website-sub001/internal/app/bootstrap"
	appconfig "github.com/nevloh/nevloh-website-sub001/internal/config"
	"github.com/nevloh/nevloh-website-sub001/internal/dashboard"
	httpmiddleware "github.com/nevloh/nevloh-website-sub001/internal/http/middleware"
	"github.com/nevloh/nevloh-website-sub001/internal/intake"
	"github.com/nevloh/nevloh-website-sub001/internal/leads"
	"github.com/nevloh/nevloh-website-sub001/internal/notify"
	"github.com/nevloh/nevloh-website-sub001/internal/observability/metrics"
	"github.com/nevloh/nevloh-website-sub001/internal/tasks"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"lead_store", cfg.LeadStore,
		"email_provider", cfg.EmailProvider,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// Confirmation emails and subscriber writes still in flight get the rest
	// of the shutdown window.
	if err := app.runner.Close(shutdownCtx); err != nil {
		logger.Warn("side-effect tasks did not drain", "error", err)
	}
	logger.Info("server stopped")
}

type application struct {
	handler http.Handler
	runner  *tasks.Runner
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*application, error) {
	app := &application{}

	metricsHandler, intakeMetrics := setupMetrics()
	app.runner = tasks.NewRunner(cfg.TaskWorkers, cfg.TaskTimeout, logger).WithObserver(intakeMetrics)

	var dynamoClient *dynamodb.Client
	var sesClient *sesv2.Client
	if cfg.LeadStore == appconfig.LeadStoreDynamo || cfg.EmailProvider == appconfig.EmailProviderSES {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamoClient = mainconfig.NewDynamoClient(awsCfg, cfg)
		sesClient = mainconfig.NewSESClient(awsCfg, cfg)
	}

	stores, err := bootstrap.BuildLeadStores(ctx, cfg, dynamoClient, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, stores.Close)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}

	sender, err := bootstrap.BuildEmailSender(cfg, sesClient, logger)
	if err != nil {
		app.close()
		return nil, err
	}
	templates, err := notify.NewTemplates(notify.TemplateConfig{
		CompanyName:   cfg.CompanyName,
		FallbackPhone: cfg.FallbackPhone,
	})
	if err != nil {
		app.close()
		return nil, err
	}
	dispatcher := notify.NewDispatcher(sender, templates, app.runner, notify.DispatcherConfig{
		OpsEmail: cfg.NotificationEmail,
		OpsName:  cfg.CompanyName,
		Timeout:  cfg.EmailTimeout,
	}, logger, intakeMetrics)

	leadService := leads.NewService(stores.Repo, stores.Subscribers, app.runner, logger, cfg.StoreTimeout)

	configured := cfg.EmailConfigured()
	if cfg.EmailProvider == appconfig.EmailProviderStub {
		logger.Warn("EMAIL_PROVIDER=stub: accepted leads are logged, not emailed to operations", "env", cfg.Env)
	}
	if !configured {
		logger.Error("email delivery not configured; POST /api/leads will answer 500",
			"provider", cfg.EmailProvider,
			"notification_email_set", cfg.NotificationEmail != "",
		)
	}
	intakeService := intake.NewService(intake.Deps{
		Gate:        bootstrap.BuildSpamGate(cfg, redisClient, logger, intakeMetrics),
		Dispatcher:  dispatcher,
		Store:       leadService,
		MailingList: bootstrap.BuildMailingList(cfg, logger),
		Runner:      app.runner,
		Logger:      logger,
		Metrics:     intakeMetrics,
		Configured:  configured,
	})

	disposable := bootstrap.BuildDisposableList(cfg)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		app.closers = append(app.closers, limiter.Close)
	}

	app.handler = router.New(&router.Config{
		Logger:             logger,
		IntakeHandler:      intake.NewHandler(intakeService, cfg.FallbackPhone, logger),
		DashboardHandler:   dashboard.NewHandler(dashboard.NewController(leadService).WithEmailBlocklist(disposable.Blocked), logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	})
	return app, nil
}

// setupMetrics creates a dedicated registry so tests can build several apps
// in one process.
func setupMetrics() (http.Handler, *metrics.IntakeMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewIntakeMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m
}
