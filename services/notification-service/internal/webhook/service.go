package webhook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/libs/metrics"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/storage"
)

type Appointments interface {
	Get(ctx context.Context, id string) (storage.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type Reminders interface {
	Recipient(ctx context.Context, appointmentID string) (string, bool, error)
	MarkSentForAppointment(ctx context.Context, appointmentID string) error
}

type Replier interface {
	Reply(ctx context.Context, replyToken string, msgs ...line.Message) error
}

// Service turns postback events from the reminder buttons into appointment status changes.
type Service struct {
	appointments Appointments
	reminders    Reminders
	replier      Replier
	logger       *slog.Logger
	metrics      *metrics.Messaging
}

func NewService(appts Appointments, reminders Reminders, replier Replier, logger *slog.Logger, m *metrics.Messaging) *Service {
	return &Service{
		appointments: appts,
		reminders:    reminders,
		replier:      replier,
		logger:       logger,
		metrics:      m,
	}
}

// HandleEvents processes every event in order. A failing event is logged and never stops
// the others; LINE only needs the 200.
func (s *Service) HandleEvents(ctx context.Context, evs []line.Event) {
	for _, ev := range evs {
		if ev.Type != "postback" || ev.Postback == nil {
			s.logger.Debug("webhook event ignored", "type", ev.Type)
			continue
		}
		s.handlePostback(ctx, ev)
	}
}

func (s *Service) handlePostback(ctx context.Context, ev line.Event) {
	action, appointmentID := line.ParsePostback(ev.Postback.Data)
	userID := ev.Source.UserID
	log := s.logger.With("action", action, "appointment_id", appointmentID)

	if (action != line.ActionConfirm && action != line.ActionCancel) || appointmentID == "" {
		log.Warn("postback skipped: unknown action or missing appointment id")
		s.metrics.ObserveAction(action, "skipped")
		return
	}
	if userID == "" {
		log.Warn("postback skipped: missing source user id")
		s.metrics.ObserveAction(action, "skipped")
		return
	}

	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error("load appointment failed", "err", err)
		}
		s.reply(ctx, log, ev.ReplyToken, ReplyNotFound)
		s.metrics.ObserveAction(action, "not_found")
		return
	}

	recipient, found, err := s.reminders.Recipient(ctx, appointmentID)
	if err != nil {
		log.Error("load reminder recipient failed", "err", err)
		s.reply(ctx, log, ev.ReplyToken, FailReply(action))
		s.metrics.ObserveAction(action, "failed")
		return
	}
	if found && recipient != userID {
		log.Warn("postback from a user who does not own the appointment", "user_id", userID)
		s.reply(ctx, log, ev.ReplyToken, ReplyPermissionDenied)
		s.metrics.ObserveAction(action, "forbidden")
		return
	}

	t := Decide(action, appt.Status)
	if !t.Allowed {
		log.Info("postback rejected", "status", appt.Status)
		s.reply(ctx, log, ev.ReplyToken, t.Reply)
		s.metrics.ObserveAction(action, "rejected")
		return
	}

	if err := s.appointments.UpdateStatus(ctx, appointmentID, t.Next); err != nil {
		log.Error("update appointment status failed", "err", err)
		s.reply(ctx, log, ev.ReplyToken, t.FailReply)
		s.metrics.ObserveAction(action, "failed")
		return
	}
	if err := s.reminders.MarkSentForAppointment(ctx, appointmentID); err != nil {
		log.Error("retire reminder tasks failed", "err", err)
	}
	log.Info("appointment status changed", "from", appt.Status, "to", t.Next)
	s.reply(ctx, log, ev.ReplyToken, t.Reply)
	s.metrics.ObserveAction(action, "applied")
}

func (s *Service) reply(ctx context.Context, log *slog.Logger, token, text string) {
	if token == "" {
		return
	}
	if err := s.replier.Reply(ctx, token, line.Text(text)); err != nil {
		log.Error("line reply failed", "err", err)
	}
}
