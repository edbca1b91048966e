package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rmaciel/voltrack/internal"
	"github.com/rmaciel/voltrack/internal/billing"
	"github.com/rmaciel/voltrack/internal/events"
	"github.com/rmaciel/voltrack/internal/handler/api"
	"github.com/rmaciel/voltrack/internal/messaging"
	"github.com/rmaciel/voltrack/internal/middleware"
	"github.com/rmaciel/voltrack/internal/postgres"
	"github.com/rmaciel/voltrack/internal/routes"
	"github.com/rmaciel/voltrack/internal/service"
	"github.com/rmaciel/voltrack/internal/telemetry"
	"github.com/rmaciel/voltrack/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(cfg.Env, cfg.LogLevel)

	logger.Info().Msg("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	clientStore := postgres.NewClientStore(pool)
	vehicleStore := postgres.NewVehicleStore(pool)
	invoiceStore := postgres.NewInvoiceStore(pool)
	checklistStore := postgres.NewChecklistStore(pool)
	partyStore := postgres.NewBillingPartyStore(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	businessMetrics := telemetry.NewBusinessMetrics("voltrack", registry)
	httpMetrics := middleware.NewMetrics("voltrack", registry)

	gateway, err := billing.NewAsaasGateway(cfg.Asaas)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}
	logger.Info().Bool("sandbox", cfg.Asaas.Sandbox).Msg("payment gateway initialized")

	dispatcher, natsConn, publisher, notifier, err := setupMessaging(cfg, businessMetrics, logger)
	if err != nil {
		return err
	}
	if natsConn != nil {
		defer natsConn.Close()
	}
	if notifier != nil {
		if err := notifier.Start(); err != nil {
			return fmt.Errorf("failed to start notifier: %w", err)
		}
		defer notifier.Stop()
	}

	resolver := service.NewCustomerResolver(gateway, partyStore, logger)
	invoiceService := service.NewInvoiceService(invoiceStore, clientStore, resolver, gateway, publisher, businessMetrics, logger)
	cycleService := service.NewBillingCycleService(
		service.BillingCycleConfig{DueDay: cfg.Billing.DueDay, GraceDays: cfg.Billing.GraceDays},
		invoiceStore, vehicleStore, clientStore, invoiceService, publisher, businessMetrics, logger,
	)
	clientService := service.NewClientService(clientStore, logger)
	vehicleService := service.NewVehicleService(vehicleStore, clientStore, logger)
	checklistService := service.NewChecklistService(checklistStore, clientStore, vehicleStore, dispatcher, cfg.SignBaseURL, logger)

	billingWorker := worker.NewWorker(cycleService, invoiceService, worker.Config{
		TickInterval:        cfg.Worker.TickInterval,
		ReconcileInterval:   cfg.Worker.ReconcileInterval,
		ReconcileStaleAfter: cfg.Worker.ReconcileStaleAfter,
		ReconcileAlertAfter: cfg.Worker.ReconcileAlertAfter,
		OverdueHour:         cfg.Worker.OverdueHour,
		MonthlyDay:          cfg.Worker.MonthlyDay,
	}, logger)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := billingWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("billing worker stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(httpMetrics.Middleware())

	routes.Register(e, routes.Deps{
		Clients:    api.NewClientHandler(clientService),
		Vehicles:   api.NewVehicleHandler(vehicleService),
		Checklists: api.NewChecklistHandler(checklistService),
		Invoices:   api.NewInvoiceHandler(invoiceService),
		Billing:    api.NewBillingHandler(cycleService, invoiceService),
		Metrics:    httpMetrics,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	<-workerDone

	return nil
}

// setupMessaging wires WhatsApp delivery and the event bus. Both are
// optional: an unconfigured Evolution API yields a nil-sender dispatcher and
// an unconfigured NATS URL yields the no-op publisher.
func setupMessaging(cfg *internal.Config, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) (*messaging.Dispatcher, *nats.Conn, events.Publisher, *events.Notifier, error) {
	var sender messaging.Sender
	if cfg.Evolution.BaseURL != "" {
		evo, err := messaging.NewEvolutionSender(cfg.Evolution)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to initialize whatsapp sender: %w", err)
		}
		sender = evo
		logger.Info().Str("instance", cfg.Evolution.Instance).Msg("whatsapp sender initialized")
	} else {
		sender = &messaging.MockSender{}
		logger.Warn().Msg("whatsapp sender not configured, notifications will be dropped")
	}
	dispatcher := messaging.NewDispatcher(sender, logger)

	if cfg.NATSURL == "" {
		logger.Warn().Msg("event bus not configured, events disabled")
		return dispatcher, nil, events.NopPublisher{}, nil, nil
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to event bus: %w", err)
	}
	logger.Info().Str("url", cfg.NATSURL).Msg("event bus connected")

	publisher := events.NewNATSPublisher(conn, logger)
	notifier := events.NewNotifier(conn, dispatcher, metrics, logger)

	return dispatcher, conn, publisher, notifier, nil
}
