package reminders

import (
	"context"
	"log/slog"
	"time"
)

type TickerConfig struct {
	// At is the local wall-clock time (HH:MM) after which the day's run fires.
	At    string
	Every time.Duration
}

// Ticker runs the dispatcher once per business day, for deployments without an external cron.
type Ticker struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	at         int
	every      time.Duration
	now        func() time.Time
	lastRun    string
}

func NewTicker(d *Dispatcher, logger *slog.Logger, cfg TickerConfig) (*Ticker, error) {
	if cfg.At == "" {
		cfg.At = "12:00"
	}
	at, err := time.Parse("15:04", cfg.At)
	if err != nil {
		return nil, err
	}
	if cfg.Every <= 0 {
		cfg.Every = time.Minute
	}
	return &Ticker{
		dispatcher: d,
		logger:     logger,
		at:         at.Hour()*60 + at.Minute(),
		every:      cfg.Every,
		now:        time.Now,
	}, nil
}

func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.every)
	defer ticker.Stop()

	for {
		t.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick dispatches at most once per local date, on the first tick at or after the configured time.
func (t *Ticker) tick(ctx context.Context) bool {
	local := t.now().In(t.dispatcher.loc)
	date := local.Format(time.DateOnly)
	if date == t.lastRun || local.Hour()*60+local.Minute() < t.at {
		return false
	}
	if _, err := t.dispatcher.DispatchDue(ctx, local); err != nil {
		t.logger.Error("scheduled reminder dispatch failed", "date", date, "err", err)
		return false
	}
	t.lastRun = date
	return true
}
