// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/checkout"
	"github.com/your-org/checkout-backend/internal/domain/lifecycle"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/store"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/memory"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/redis"
	"github.com/your-org/checkout-backend/internal/infrastructure/messaging"
	"github.com/your-org/checkout-backend/internal/interfaces/http"
	"github.com/your-org/checkout-backend/internal/interfaces/http/handlers"
	"github.com/your-org/checkout-backend/internal/interfaces/http/routes"
	"github.com/your-org/checkout-backend/internal/pkg/auth"
	"github.com/your-org/checkout-backend/internal/pkg/logger"
	"github.com/your-org/checkout-backend/internal/pkg/telemetry"
	"go.opentelemetry.io/otel"
)

type publisher interface {
	order.EventPublisher
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.Fatalf("❌ %v", err)
	}
}

// run wires every component and serves until ctx is cancelled.
// Every resource opened here is released before it returns.
func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	log.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer shutdown(log, "tracer provider", shutdownTracing)

	deps := http.Dependencies{
		JWT:    auth.NewJWTManager(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.AccessTokenExpiry),
		Health: map[string]http.HealthChecker{},
		Logger: log,
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		handler, shutdownMetrics, err := telemetry.InitMeterProvider(cfg.App.Name, cfg.App.Version)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer shutdown(log, "meter provider", shutdownMetrics)

		metrics, err = telemetry.NewMetrics(otel.Meter("checkout-backend"))
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		deps.Metrics = handler
	}

	// Storage
	st, closeStore, err := openStore(ctx, cfg, log, deps.Health)
	if err != nil {
		return err
	}
	defer closeStore()

	// Order number reservations go through Redis when available so that
	// several API instances never hand out the same number
	var reserver order.NumberReserver = order.NewLocalReserver(cfg.Checkout.ReservationTTL)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewConnection(cfg, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		reserver = redis.NewNumberReserver(redisClient.GetClient(), cfg.Checkout.ReservationTTL)
		deps.Redis = redisClient.GetClient()
		deps.Health["redis"] = redisClient
	}

	// Order events
	var events publisher = messaging.NewLogPublisher(log)
	if cfg.Kafka.Enabled {
		events = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.WithField("topic", cfg.Kafka.Topic).Info("✅ Kafka producer configured")
	}
	defer events.Close()

	numbers := order.NewNumberGenerator(cfg.Checkout.OrderNumberPrefix, cfg.Checkout.OrderNumberMaxAttempts, reserver)

	cartService := cart.NewService(st.Carts(), st.Products(), log)
	checkoutService := checkout.NewService(st, numbers, events, metrics, log)
	lifecycleService := lifecycle.NewService(st, st.Orders(), events, metrics, log)

	deps.Handlers = routes.Handlers{
		Cart:     handlers.NewCartHandler(cartService, log),
		Checkout: handlers.NewCheckoutHandler(checkoutService, log),
		Order:    handlers.NewOrderHandler(lifecycleService, log),
	}

	log.Info("✅ All systems operational!")

	server := http.NewServer(cfg, deps)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("👋 Shutting down gracefully...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(stopCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}
	if err := <-serveErr; err != nil {
		log.WithError(err).Error("HTTP server stopped with error")
	}

	log.Info("✅ Server shutdown completed")
	return nil
}

// openStore connects the configured storage backend
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger, health map[string]http.HealthChecker) (store.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("Using in-memory storage, data is lost on restart")
		st := memory.NewStore()
		for _, p := range postgres.DemoProducts() {
			if err := st.Products().Save(ctx, &p); err != nil {
				return nil, nil, fmt.Errorf("failed to seed products: %w", err)
			}
		}
		return st, func() {}, nil
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	health["database"] = db

	if cfg.Database.AutoMigrate {
		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}
	}

	if cfg.Database.SeedDemoData {
		if err := postgres.NewMigration(db.GetDB(), log).SeedInitialData(); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	return postgres.NewStore(db.GetDB()), func() { _ = db.Close() }, nil
}

func shutdown(log logrus.FieldLogger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.WithError(err).Warnf("Failed to shut down %s", name)
	}
}
