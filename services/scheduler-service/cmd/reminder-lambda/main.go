package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/hanguang-studio/salonbook/libs/config"
	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/libs/runtime"
	"github.com/hanguang-studio/salonbook/services/scheduler-service/internal/reminders"
)

type dispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (reminders.Summary, error)
}

func main() {
	logger := runtime.NewLogger(config.String("SERVICE_NAME", "reminder-lambda"), config.String("LOG_LEVEL", "info"))

	d, err := newDispatcher(context.Background(), logger)
	if err != nil {
		logger.Error("reminder lambda startup failed", "err", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context, evt events.CloudWatchEvent) (reminders.Summary, error) {
		return handle(ctx, d, evt, time.Now)
	})
}

func newDispatcher(ctx context.Context, logger *slog.Logger) (*reminders.Dispatcher, error) {
	loc, err := config.Location("BUSINESS_TIMEZONE", "Asia/Taipei")
	if err != nil {
		return nil, err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	pc := db.DefaultPoolConfig()
	pc.MaxConns = 2
	pool, err := db.Open(ctx, dbURL, pc)
	if err != nil {
		return nil, err
	}

	lineClient := line.NewClient(line.Config{
		AccessToken: config.String("LINE_ACCESS_TOKEN", ""),
		BaseURL:     config.String("LINE_API_BASE_URL", line.DefaultBaseURL),
	})
	return reminders.NewDispatcher(reminders.NewRepository(pool), lineClient, loc, logger, nil), nil
}

// handle dispatches for the day the schedule fired, falling back to the current time
// for manual invocations that carry no event time.
func handle(ctx context.Context, d dispatcher, evt events.CloudWatchEvent, now func() time.Time) (reminders.Summary, error) {
	at := evt.Time
	if at.IsZero() {
		at = now()
	}
	return d.DispatchDue(ctx, at)
}
