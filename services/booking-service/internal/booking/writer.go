package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hanguang-studio/salonbook/libs/events"
	"github.com/hanguang-studio/salonbook/libs/metrics"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/availability"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/storage"
)

var (
	// ErrPersist means the appointment row could not be written.
	ErrPersist = errors.New("failed to persist appointment")
	// ErrSlotTaken means a database constraint rejected an overlapping appointment.
	ErrSlotTaken = errors.New("time slot already booked")
)

// ReminderTime is when day-before reminders go out, in the business time zone.
const ReminderTime = "12:00:00"

type AppointmentStore interface {
	Create(ctx context.Context, a model.Appointment) error
}

type ReminderStore interface {
	Insert(ctx context.Context, t model.ReminderTask) error
}

type Notifier interface {
	NotifyBooked(ctx context.Context, e events.AppointmentBooked) error
}

type Request struct {
	CustomerPhone string
	CustomerName  string
	LineUserID    string
	Service       model.Service
	Date          time.Time
	Start         availability.Clock
}

// Result carries the stored appointment and any side effect that failed after it was stored.
type Result struct {
	Appointment model.Appointment `json:"appointment"`
	Warnings    []string          `json:"warnings,omitempty"`
}

type Writer struct {
	appointments AppointmentStore
	reminders    ReminderStore
	notifier     Notifier
	policy       availability.Policy
	logger       *slog.Logger
	metrics      *metrics.Booking
	now          func() time.Time
	newID        func() string
}

type Option func(*Writer)

func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

func WithIDs(newID func() string) Option {
	return func(w *Writer) { w.newID = newID }
}

func WithMetrics(m *metrics.Booking) Option {
	return func(w *Writer) { w.metrics = m }
}

// NewWriter builds a Writer. notifier and reminders may be nil to disable those side effects.
func NewWriter(appts AppointmentStore, reminders ReminderStore, notifier Notifier, policy availability.Policy, logger *slog.Logger, opts ...Option) *Writer {
	w := &Writer{
		appointments: appts,
		reminders:    reminders,
		notifier:     notifier,
		policy:       policy,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateAppointment stores a pending appointment without re-checking availability, then
// notifies the customer and schedules the day-before reminder. Only the insert can fail
// the call; side-effect failures are returned as warnings.
func (w *Writer) CreateAppointment(ctx context.Context, req Request) (Result, error) {
	date := req.Date.Format(time.DateOnly)
	appt := model.Appointment{
		ID:              w.newID(),
		CustomerPhone:   req.CustomerPhone,
		ServiceID:       req.Service.ID,
		ServiceName:     req.Service.Name,
		Date:            date,
		StartTime:       req.Start.String(),
		EndTime:         w.policy.EndTime(req.Start, req.Service.DurationMinutes).String(),
		Status:          model.StatusPending,
		DurationMinutes: availability.EffectiveDuration(req.Service.DurationMinutes),
	}

	if err := w.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			w.metrics.ObserveAppointment("slot_taken")
			return Result{}, fmt.Errorf("%w: %s %s", ErrSlotTaken, date, appt.StartTime)
		}
		w.metrics.ObserveAppointment("failed")
		return Result{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	w.metrics.ObserveAppointment("created")
	w.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"service_id", appt.ServiceID,
		"date", appt.Date,
		"start_time", appt.StartTime,
	)

	res := Result{Appointment: appt}
	if req.LineUserID == "" {
		return res, nil
	}

	if w.notifier != nil {
		err := w.notifier.NotifyBooked(ctx, events.AppointmentBooked{
			AppointmentID: appt.ID,
			CustomerPhone: appt.CustomerPhone,
			CustomerName:  req.CustomerName,
			LineUserID:    req.LineUserID,
			ServiceID:     appt.ServiceID,
			ServiceName:   appt.ServiceName,
			Date:          appt.Date,
			StartTime:     appt.StartTime,
			EndTime:       appt.EndTime,
		})
		w.metrics.ObserveSideEffect("notify", err)
		if err != nil {
			w.logger.Warn("booking notification failed", "appointment_id", appt.ID, "err", err)
			res.Warnings = append(res.Warnings, "notification not sent: "+err.Error())
		}
	}

	if w.reminders != nil {
		if task, ok := w.reminderFor(appt, req); ok {
			err := w.reminders.Insert(ctx, task)
			w.metrics.ObserveSideEffect("reminder", err)
			if err != nil {
				w.logger.Warn("reminder task insert failed", "appointment_id", appt.ID, "err", err)
				res.Warnings = append(res.Warnings, "reminder not scheduled: "+err.Error())
			}
		}
	}
	return res, nil
}

// reminderFor schedules the reminder for noon the day before, unless that day has passed.
func (w *Writer) reminderFor(appt model.Appointment, req Request) (model.ReminderTask, bool) {
	loc := w.policy.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := req.Date.Date()
	remindOn := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -1).Format(time.DateOnly)
	today := w.now().In(loc).Format(time.DateOnly)
	if remindOn < today {
		return model.ReminderTask{}, false
	}
	return model.ReminderTask{
		ID:            w.newID(),
		AppointmentID: appt.ID,
		LineUserID:    req.LineUserID,
		ReminderDate:  remindOn,
		ReminderTime:  ReminderTime,
		ScheduledDate: appt.Date,
		ScheduledTime: appt.StartTime,
		ServiceName:   appt.ServiceName,
	}, true
}
