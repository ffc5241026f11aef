package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hanguang-studio/salonbook/libs/config"
	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/libs/events"
	"github.com/hanguang-studio/salonbook/libs/httpx"
	"github.com/hanguang-studio/salonbook/libs/kafkax"
	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/libs/metrics"
	otelx "github.com/hanguang-studio/salonbook/libs/otel"
	"github.com/hanguang-studio/salonbook/libs/runtime"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/consumer"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/handlers"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/inbox"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/push"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/storage"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		slog.Error("load .env failed", "err", err)
		os.Exit(1)
	}
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	lineClient := line.NewClient(line.Config{
		ChannelSecret: config.String("LINE_CHANNEL_SECRET", ""),
		AccessToken:   config.String("LINE_ACCESS_TOKEN", ""),
		BaseURL:       config.String("LINE_API_BASE_URL", line.DefaultBaseURL),
		Timeout:       config.Duration("LINE_HTTP_TIMEOUT", 10*time.Second),
	})
	if !lineClient.Configured() {
		logger.Warn("LINE_ACCESS_TOKEN not set; pushes and replies will fail")
	}
	skipVerify := config.Bool("LINE_SKIP_SIGNATURE_VERIFY", false)
	if skipVerify {
		logger.Warn("LINE webhook signature verification disabled")
	}

	reg := metrics.Registry()
	messaging := metrics.NewMessaging(reg)
	sender := push.NewSender(lineClient, storage.NewNotificationRepository(pool), logger, messaging)
	actions := webhook.NewService(storage.NewAppointmentRepository(pool), storage.NewReminderRepository(pool), lineClient, logger, messaging)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if brokers := config.String("KAFKA_BROKERS", ""); strings.TrimSpace(brokers) != "" {
		eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   config.String("KAFKA_CONSUME_TOPIC", events.TopicAppointmentBooked),
		}, sender.HandleBooked)
		go eventConsumer.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	mux := runtime.NewBaseMux(checks...)
	mux.Handle("/metrics", metrics.Handler(reg))
	handlers.NewLineHandler(sender, actions, handlers.LineConfig{
		Configured:    lineClient.Configured(),
		ChannelSecret: config.String("LINE_CHANNEL_SECRET", ""),
		SkipVerify:    skipVerify,
	}, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
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
