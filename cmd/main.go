package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"restaurant-system/internal/api"
	"restaurant-system/internal/config"
	"restaurant-system/internal/database"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/messaging"
	"restaurant-system/internal/models"
	"restaurant-system/internal/services/cart"
	"restaurant-system/internal/services/checkout"
	"restaurant-system/internal/services/kitchen"
	"restaurant-system/internal/services/menu"
	"restaurant-system/internal/services/notification"
	"restaurant-system/internal/services/order"
	"restaurant-system/internal/services/reservation"
	"restaurant-system/internal/services/tracking"
	"restaurant-system/migrations"
)

func main() {
	var (
		mode       = flag.String("mode", "api", "Service mode (api, kitchen-worker, notification-subscriber)")
		port       = flag.Int("port", 0, "HTTP port, overrides server.port")
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file")
		workerName = flag.String("worker-name", "", "Worker name (required for kitchen-worker mode)")
		orderTypes = flag.String("order-types", "", "Comma-separated order types for worker specialization")
		prefetch   = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": cfg.Server.Port,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "api":
		err = runAPI(ctx, cfg, log)
	case "kitchen-worker":
		if *workerName == "" {
			log.Error("validation_failed", "worker-name is required for kitchen-worker mode", requestID, nil, nil)
			os.Exit(1)
		}
		err = runKitchenWorker(ctx, cfg, log, *workerName, *orderTypes, *prefetch)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPI serves the cart, reservation, checkout, order and tracking routes
func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()
	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
	publisher := messaging.NewPublisher(conn, log)

	persistence, closeCarts, err := cartPersistence(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCarts()

	catalog := menu.NewCatalog(db)
	carts := cart.NewStore(persistence, log)

	reservationRepo := reservation.NewPostgresRepository(db)
	reservations := reservation.NewService(reservationRepo, reservationRepo, publisher, log, reservation.WithLocation(loc))
	lookup := reservation.NewLookup(reservationRepo, reservation.WithLocation(loc))

	orderRepo := order.NewPostgresRepository(db, loc)
	orders := order.NewService(orderRepo, carts, publisher, log, order.WithLocation(loc))

	checkouts := checkout.NewService(carts, lookup, orders, log)
	tracker := tracking.NewService(orderRepo, log)

	checks := map[string]api.HealthCheck{
		"postgres": db.Ping,
		"rabbitmq": func(context.Context) error {
			if !conn.Healthy() {
				return errors.New("connection closed")
			}
			return nil
		},
	}

	handler := api.NewRouter(ctx, cfg.Server, log, checks,
		cart.NewHandler(carts, catalog, log),
		reservation.NewHandler(reservations, lookup, log),
		checkout.NewHandler(checkouts, log),
		tracking.NewHandler(tracker, log),
		order.NewHandler(orders, log),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("API started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port":     cfg.Server.Port,
			"timezone": loc.String(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", "Shutting down HTTP server", requestID, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// cartPersistence connects to Redis, or keeps carts in memory when no Redis
// host is configured
func cartPersistence(ctx context.Context, cfg *config.Config, log *logger.Logger) (cart.Persistence, func(), error) {
	if cfg.Redis.Host == "" {
		log.Info("cart_persistence", "Redis not configured, carts are kept in memory", "", nil)
		return cart.NewMemoryPersistence(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}

	log.Info("redis_connected", "Connected to Redis", "", map[string]interface{}{
		"addr":      cfg.RedisAddr(),
		"ttl_hours": cfg.Redis.CartTTLHours,
	})
	return cart.NewRedisPersistence(client, cfg.CartTTL()), func() { client.Close() }, nil
}

// runKitchenWorker confirms new orders from the kitchen queue
func runKitchenWorker(ctx context.Context, cfg *config.Config, log *logger.Logger, workerName, orderTypes string, prefetch int) error {
	var types []models.OrderType
	for _, t := range strings.Split(orderTypes, ",") {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if !models.OrderType(t).Valid() {
			return fmt.Errorf("unknown order type %q", t)
		}
		types = append(types, models.OrderType(t))
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	// the worker never checks out, so carts it would clear are irrelevant
	orders := order.NewService(order.NewPostgresRepository(db, loc), cart.NewStore(cart.NewMemoryPersistence(), log),
		messaging.NewPublisher(conn, log), log, order.WithLocation(loc))

	consumer := messaging.NewConsumer(conn, log, messaging.KitchenQueue, "kitchen-"+workerName, prefetch)
	return kitchen.NewWorker(workerName, types, orders, consumer, log).Start(ctx)
}

// runNotificationSubscriber prints order and reservation status updates
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	return notification.NewSubscriber(consumer, log).Start(ctx)
}
