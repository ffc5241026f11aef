package push

import (
	"context"
	"log/slog"

	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/hanguang-studio/salonbook/libs/metrics"
	"github.com/hanguang-studio/salonbook/services/notification-service/internal/storage"
)

type Pusher interface {
	Push(ctx context.Context, to string, msgs ...line.Message) error
}

type NotificationLog interface {
	Insert(ctx context.Context, n storage.Notification) error
}

// Booking carries what the confirmation text shows.
type Booking struct {
	AppointmentID string
	UserID        string
	Details       line.BookingDetails
}

// Sender pushes booking confirmations and records each attempt.
type Sender struct {
	pusher  Pusher
	log     NotificationLog
	logger  *slog.Logger
	metrics *metrics.Messaging
}

// NewSender builds a Sender. log may be nil when no database is configured.
func NewSender(pusher Pusher, log NotificationLog, logger *slog.Logger, m *metrics.Messaging) *Sender {
	return &Sender{pusher: pusher, log: log, logger: logger, metrics: m}
}

func (s *Sender) SendBookingConfirmation(ctx context.Context, b Booking) error {
	err := s.pusher.Push(ctx, b.UserID, line.BookingConfirmation(b.Details))
	s.metrics.ObservePush("booking_confirmation", err)
	if err != nil {
		s.logger.Error("booking confirmation push failed", "appointment_id", b.AppointmentID, "err", err)
	} else {
		s.logger.Info("booking confirmation sent", "appointment_id", b.AppointmentID)
	}

	if s.log != nil {
		n := storage.Notification{
			AppointmentID: b.AppointmentID,
			Kind:          "booking_confirmation",
			Recipient:     b.UserID,
			Payload: map[string]any{
				"appointment_date": b.Details.Date,
				"appointment_time": b.Details.Time,
				"service_name":     b.Details.ServiceName,
			},
			Status: "sent",
		}
		if err != nil {
			n.Status = "failed"
			n.Error = err.Error()
		}
		if logErr := s.log.Insert(ctx, n); logErr != nil {
			s.logger.Warn("notification log insert failed", "err", logErr)
		}
	}
	return err
}
