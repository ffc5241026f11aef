package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hanguang-studio/salonbook/libs/config"
	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/libs/httpx"
	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/libs/metrics"
	otelx "github.com/hanguang-studio/salonbook/libs/otel"
	"github.com/hanguang-studio/salonbook/libs/runtime"
	"github.com/hanguang-studio/salonbook/services/scheduler-service/internal/handlers"
	"github.com/hanguang-studio/salonbook/services/scheduler-service/internal/reminders"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		slog.Error("load .env failed", "err", err)
		os.Exit(1)
	}
	service := config.String("SERVICE_NAME", "scheduler-service")
	port, err := config.Port("PORT", "8087")
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
	lineClient := line.NewClient(line.Config{
		AccessToken: config.String("LINE_ACCESS_TOKEN", ""),
		BaseURL:     config.String("LINE_API_BASE_URL", line.DefaultBaseURL),
		Timeout:     config.Duration("LINE_HTTP_TIMEOUT", 10*time.Second),
	})
	dispatcher := reminders.NewDispatcher(reminders.NewRepository(pool), lineClient, loc, logger, metrics.NewMessaging(reg))

	if config.Bool("REMINDER_AUTORUN", false) {
		ticker, err := reminders.NewTicker(dispatcher, logger, reminders.TickerConfig{
			At:    config.String("REMINDER_AUTORUN_AT", "12:00"),
			Every: config.Duration("REMINDER_AUTORUN_EVERY", time.Minute),
		})
		if err != nil {
			logger.Error("invalid REMINDER_AUTORUN_AT", "err", err)
			os.Exit(1)
		}
		go ticker.Run(ctx)
		logger.Info("daily reminder dispatch enabled")
	}

	secret := config.String("REMINDER_API_SECRET", "")
	if secret == "" {
		logger.Warn("REMINDER_API_SECRET not set; the dispatch endpoint will answer 500")
	}

	mux := runtime.NewBaseMux(runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	mux.Handle("/metrics", metrics.Handler(reg))
	handlers.NewDispatchHandler(dispatcher, logger).Register(mux, secret)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}),
	)
	handler = otelhttp.NewHandler(handler, "scheduler")
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
