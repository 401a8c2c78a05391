package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"build-a-bite/internal/config"
	"build-a-bite/internal/database"
	"build-a-bite/internal/logger"
	"build-a-bite/internal/messaging"
	"build-a-bite/internal/pricing"
	"build-a-bite/internal/rules"
	"build-a-bite/internal/services/cart"
	"build-a-bite/internal/services/catalog"
	"build-a-bite/internal/services/checkout"
	"build-a-bite/internal/services/composition"
	"build-a-bite/internal/services/notification"
	"build-a-bite/internal/services/order"
)

func main() {
	// Parse command line flags
	var (
		mode       = flag.String("mode", "", "Service mode (api, notification-subscriber)")
		port       = flag.Int("port", 0, "HTTP port (overrides config)")
		configPath = flag.String("config", "config.yaml", "Path to config file")
	)
	flag.Parse()

	// Validate required mode flag
	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	httpPort := cfg.Server.Port
	if *port != 0 {
		httpPort = *port
	}

	// Create logger
	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": httpPort,
	})

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	// Route to appropriate service
	switch *mode {
	case "api":
		if err := runAPI(ctx, cfg, log, httpPort); err != nil {
			log.Error("service_failed", "API service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPI runs the ordering API
func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	// Initialize database
	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	// Run database migrations
	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize messaging
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)

	// Wire services bottom-up: catalog feeds compositions and pricing,
	// pricing feeds the cart, the cart feeds checkout.
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))

	validator := rules.NewValidator(rules.DefaultTable())
	compositionService := composition.NewService(composition.NewPostgresRepository(db), catalogService, validator, log)

	snapshot := pricing.NewSnapshot(catalogService, compositionService)
	cartService := cart.NewService(cart.NewPostgresRepository(db), snapshot, log)

	checkoutService := checkout.NewService(
		checkout.NewPostgresRepository(db),
		cartService,
		checkout.NewLocalAuthorizer(),
		publisher,
		log,
	)
	orderService := order.NewService(order.NewPostgresRepository(db), publisher, log)

	// Setup HTTP routes
	mux := http.NewServeMux()
	composition.NewHandler(compositionService, log).Register(mux)
	cart.NewHandler(cartService, log).Register(mux)
	checkout.NewHandler(checkoutService, log).Register(mux)
	order.NewHandler(orderService, log).Register(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: withLogging(mux, log),
	}

	// Start HTTP server in goroutine
	go func() {
		log.Info("service_started", fmt.Sprintf("API started on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runNotificationSubscriber runs the order events consumer
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	subscriber := notification.NewSubscriber(conn, log)
	defer subscriber.Close()

	if err := subscriber.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// withLogging logs every request with its duration
func withLogging(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("http_request", fmt.Sprintf("%s %s", r.Method, r.URL.Path), "", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
