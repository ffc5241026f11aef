package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hanguang-studio/salonbook/libs/config"
	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/libs/httpx"
	"github.com/hanguang-studio/salonbook/libs/kafkax"
	"github.com/hanguang-studio/salonbook/libs/metrics"
	otelx "github.com/hanguang-studio/salonbook/libs/otel"
	"github.com/hanguang-studio/salonbook/libs/runtime"
	"github.com/hanguang-studio/salonbook/libs/validation"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/availability"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/booking"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/catalog"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/customers"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/handlers"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/notify"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/outbox"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		slog.Error("load .env failed", "err", err)
		os.Exit(1)
	}
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc, err := config.Location("BUSINESS_TIMEZONE", "Asia/Taipei")
	if err != nil {
		logger.Error("invalid business timezone", "err", err)
		os.Exit(1)
	}
	policy := availability.DefaultPolicy(loc)

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	pool, err := db.Open(ctx, dbURL, db.DefaultPoolConfig())
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := metrics.Registry()
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var cacheClient redis.Cmdable
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: config.String("REDIS_PASSWORD", "")})
		defer func() { _ = rdb.Close() }()
		cacheClient = rdb
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	catalogRepo := storage.NewCatalogRepository(pool)
	appointmentRepo := storage.NewAppointmentRepository(pool)
	catalogCache := catalog.NewCache(catalogRepo, cacheClient, config.Duration("CATALOG_CACHE_TTL", 5*time.Minute), logger)

	var notifier booking.Notifier
	if brokers := config.String("KAFKA_BROKERS", ""); strings.TrimSpace(brokers) != "" {
		writer, err := kafkax.NewWriter(brokers)
		if err != nil {
			logger.Error("kafka writer init failed", "err", err)
			os.Exit(1)
		}
		outboxRepo := outbox.NewRepository()
		publisher := outbox.NewPublisher(pool, outboxRepo, writer, logger, outbox.PublisherConfig{
			PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		// Run closes the writer when ctx ends.
		go publisher.Run(ctx)
		notifier = outbox.NewNotifier(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		notifier = notify.NewHTTPNotifier(config.String("NOTIFICATION_SERVICE_URL", "http://notification-service:8085"))
		logger.Warn("KAFKA_BROKERS not set; booking notifications go straight to notification-service")
	}

	writer := booking.NewWriter(appointmentRepo, storage.NewReminderRepository(pool), notifier, policy, logger,
		booking.WithMetrics(metrics.NewBooking(reg)))
	validate := validation.New()
	registry := customers.NewRegistry(storage.NewCustomerRepository(pool), appointmentRepo, validate, loc)
	public := handlers.NewPublicHandler(catalogCache, appointmentRepo, registry, writer, policy, validate, logger)

	mux := runtime.NewBaseMux(checks...)
	mux.Handle("/metrics", metrics.Handler(reg))
	router := chi.NewRouter()
	public.Routes(router)
	mux.Handle("/api/v1/public/", router)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("HTTP_MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
