package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/libs/metrics"
)

type Store interface {
	Due(ctx context.Context, date string) ([]Task, error)
	AppointmentStatus(ctx context.Context, appointmentID string) (string, bool, error)
	MarkSent(ctx context.Context, taskID string) error
}

type Pusher interface {
	Configured() bool
	Push(ctx context.Context, to string, msgs ...line.Message) error
}

// Summary reports one dispatch run.
type Summary struct {
	Date    string   `json:"-"`
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type Dispatcher struct {
	store   Store
	pusher  Pusher
	loc     *time.Location
	logger  *slog.Logger
	metrics *metrics.Messaging
}

func NewDispatcher(store Store, pusher Pusher, loc *time.Location, logger *slog.Logger, m *metrics.Messaging) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{store: store, pusher: pusher, loc: loc, logger: logger, metrics: m}
}

// DispatchDue sends the reminders due on the business-local date of now. Tasks whose
// appointment is no longer pending are retired without a push. A failed push leaves the
// task unsent and is reported in the summary; it is not retried within the run.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (Summary, error) {
	date := now.In(d.loc).Format(time.DateOnly)
	sum := Summary{Date: date, Errors: []string{}}

	tasks, err := d.store.Due(ctx, date)
	if err != nil {
		return sum, err
	}
	sum.Total = len(tasks)
	if len(tasks) == 0 {
		d.logger.Info("no reminders due", "date", date)
		return sum, nil
	}
	if !d.pusher.Configured() {
		return sum, line.ErrNotConfigured
	}

	for _, t := range tasks {
		log := d.logger.With("reminder_id", t.ID, "appointment_id", t.AppointmentID)

		status, found, err := d.store.AppointmentStatus(ctx, t.AppointmentID)
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("Reminder %s: %v", t.ID, err))
			log.Error("load appointment status failed", "err", err)
			continue
		}
		if !found || status != "pending" {
			if err := d.store.MarkSent(ctx, t.ID); err != nil {
				log.Error("retire reminder failed", "err", err)
			}
			sum.Skipped++
			log.Info("reminder skipped", "status", status, "found", found)
			continue
		}

		err = d.pusher.Push(ctx, t.LineUserID, line.ReminderButtons(line.ReminderDetails{
			AppointmentID: t.AppointmentID,
			Date:          t.ScheduledDate,
			Time:          t.ScheduledTime,
			ServiceName:   t.ServiceName,
		}))
		d.metrics.ObservePush("reminder", err)
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("Reminder %s: %s", t.ID, pushError(err)))
			log.Error("reminder push failed", "err", err)
			continue
		}
		if err := d.store.MarkSent(ctx, t.ID); err != nil {
			log.Error("mark reminder sent failed", "err", err)
		}
		sum.Success++
	}

	d.metrics.ObserveDispatch("success", sum.Success)
	d.metrics.ObserveDispatch("failed", sum.Failed)
	d.metrics.ObserveDispatch("skipped", sum.Skipped)
	d.logger.Info("reminders dispatched", "date", date, "total", sum.Total, "success", sum.Success, "failed", sum.Failed, "skipped", sum.Skipped)
	return sum, nil
}

func pushError(err error) string {
	var apiErr *line.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}
	return err.Error()
}
